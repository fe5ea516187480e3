package ids

import (
	"testing"

	"stakecore/chain/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func TestValidatorAddressIsDeterministic(t *testing.T) {
	owner := addr(1)
	a1 := ValidatorAddress(3, owner, 5)
	a2 := ValidatorAddress(3, owner, 5)
	if a1 != a2 {
		t.Fatal("ValidatorAddress should be deterministic for the same inputs")
	}
}

func TestValidatorAddressVariesByQualityOwnerAndID(t *testing.T) {
	owner := addr(1)
	base := ValidatorAddress(3, owner, 5)

	if ValidatorAddress(4, owner, 5) == base {
		t.Fatal("changing quality should change the derived address")
	}
	if ValidatorAddress(3, addr(2), 5) == base {
		t.Fatal("changing owner should change the derived address")
	}
	if ValidatorAddress(3, owner, 6) == base {
		t.Fatal("changing id should change the derived address")
	}
}

func TestFeeVaultAddressDiffersFromValidator(t *testing.T) {
	validator := addr(7)
	if FeeVaultAddress(validator) == validator {
		t.Fatal("fee vault address should differ from the validator's own address")
	}
}

func TestFeeVaultAddressIsDeterministic(t *testing.T) {
	validator := addr(7)
	if FeeVaultAddress(validator) != FeeVaultAddress(validator) {
		t.Fatal("FeeVaultAddress should be deterministic")
	}
}

func TestGovernanceAddressVariesByAdmin(t *testing.T) {
	if GovernanceAddress(addr(1)) == GovernanceAddress(addr(2)) {
		t.Fatal("different admins should derive different governance addresses")
	}
}

func TestDerivedAddressNamespacesDoNotCollide(t *testing.T) {
	shared := addr(42)
	if FeeVaultAddress(shared) == GovernanceAddress(shared) {
		t.Fatal("fee vault and governance derivations should use distinct domain separators")
	}
}
