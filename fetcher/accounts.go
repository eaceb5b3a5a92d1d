package fetcher

import "github.com/gagliardetto/solana-go"

// sysvarAndBuiltinProgramIDs are well-known accounts that are never
// write-locked even when the message header's bit arithmetic would
// otherwise mark them writable.
var sysvarAndBuiltinProgramIDs = map[string]struct{}{
	"11111111111111111111111111111111":           {}, // System
	"Vote111111111111111111111111111111111111111": {},
	"Stake11111111111111111111111111111111111111": {},
	"Config1111111111111111111111111111111111111": {},
	"BPFLoader1111111111111111111111111111111111": {},
	"BPFLoader2111111111111111111111111111111111": {},
	"BPFLoaderUpgradeab1e11111111111111111111111": {},
	"ComputeBudget111111111111111111111111111111": {},
	"SysvarRent111111111111111111111111111111111": {},
	"SysvarC1ock11111111111111111111111111111111": {},
	"SysvarRecentB1ockHashes11111111111111111111": {},
	"SysvarStakeHistory1111111111111111111111111": {},
	"SysvarEpochSchedu1e111111111111111111111111": {},
	"SysvarFees111111111111111111111111111111111": {},
	"SysvarInstructions1111111111111111111111111": {},
}

const upgradeableLoaderProgramID = "BPFLoaderUpgradeab1e11111111111111111111111"

// isWritableByHeader reports whether account index is writable purely by
// the message header's signed/unsigned readonly counts, ignoring the
// sysvar/builtin and demoted-program-id exceptions applied on top by
// isAccWritable.
func isWritableByHeader(index int, header solana.MessageHeader, numAccounts int) bool {
	numRequiredSignatures := int(header.NumRequiredSignatures)
	if index < numRequiredSignatures {
		return index < numRequiredSignatures-int(header.NumReadonlySignedAccounts)
	}
	return index-numRequiredSignatures < numAccounts-numRequiredSignatures-int(header.NumReadonlyUnsignedAccounts)
}

// isDemotedProgramID reports whether the account at index is referenced as
// a program id by some instruction in the message while the upgradeable
// loader itself is absent from the account list — in that case any
// write-lock granted by the header is demoted to read-only, mirroring the
// runtime's own treatment of non-upgradeable program accounts.
func isDemotedProgramID(index int, accountKeys []solana.PublicKey, instructions []solana.CompiledInstruction) bool {
	referencedAsProgram := false
	for _, ix := range instructions {
		if int(ix.ProgramIDIndex) == index {
			referencedAsProgram = true
			break
		}
	}
	if !referencedAsProgram {
		return false
	}

	for _, key := range accountKeys {
		if key.String() == upgradeableLoaderProgramID {
			return false
		}
	}
	return true
}

// isAccWritable reports whether the account at index should be recorded as
// writable: writable by header arithmetic, not a sysvar/builtin program,
// and not a demoted program id.
func isAccWritable(index int, header solana.MessageHeader, accountKeys []solana.PublicKey, instructions []solana.CompiledInstruction) bool {
	if !isWritableByHeader(index, header, len(accountKeys)) {
		return false
	}
	if _, isBuiltin := sysvarAndBuiltinProgramIDs[accountKeys[index].String()]; isBuiltin {
		return false
	}
	if isDemotedProgramID(index, accountKeys, instructions) {
		return false
	}
	return true
}

// isAccSigner reports whether the account at index signed the transaction.
func isAccSigner(index int, header solana.MessageHeader) bool {
	return index < int(header.NumRequiredSignatures)
}
