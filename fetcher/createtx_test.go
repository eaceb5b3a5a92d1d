package fetcher

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

func TestDecodeTransactionRejectsNilEnvelope(t *testing.T) {
	_, err := decodeTransaction(&rpc.GetTransactionResult{})
	if err != ErrWrongEncoding {
		t.Fatalf("decodeTransaction(nil envelope) = %v, want %v", err, ErrWrongEncoding)
	}
}

func sampleDecodedTx(t *testing.T) *solana.Transaction {
	t.Helper()
	return &solana.Transaction{
		Signatures: []solana.Signature{{1, 2, 3}},
		Message: solana.Message{
			Header: solana.MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlySignedAccounts:   0,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys: []solana.PublicKey{
				pk(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"),
				pk(t, "11111111111111111111111111111111"),
			},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{0}, Data: []byte{9, 9}},
			},
		},
	}
}

func TestBuildTxHappyPath(t *testing.T) {
	decoded := sampleDecodedTx(t)
	blockTime := int64(1_700_000_000)

	tx, err := buildTx("sig-success", decoded, &blockTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.Hash != "sig-success" {
		t.Errorf("Hash = %q, want %q", tx.Hash, "sig-success")
	}
	if tx.Blocktime != blockTime {
		t.Errorf("Blocktime = %d, want %d", tx.Blocktime, blockTime)
	}
	if tx.IndexingStatus != "pending" {
		t.Errorf("IndexingStatus = %q, want pending", tx.IndexingStatus)
	}
	if len(tx.AccountKeys) != 2 {
		t.Fatalf("AccountKeys len = %d, want 2", len(tx.AccountKeys))
	}
	if !tx.AccountKeys[0].Signer {
		t.Error("expected account 0 to be recorded as signer")
	}
	if tx.AccountKeys[1].Signer {
		t.Error("expected account 1 not to be recorded as signer")
	}
	if len(tx.Instructions) != 1 {
		t.Fatalf("Instructions len = %d, want 1", len(tx.Instructions))
	}
	ix := tx.Instructions[0]
	if ix.ProgramIDIndex != 1 {
		t.Errorf("ProgramIDIndex = %d, want 1", ix.ProgramIDIndex)
	}
	if len(ix.AccountIndexes) != 1 || ix.AccountIndexes[0] != 0 {
		t.Errorf("AccountIndexes = %v, want [0]", ix.AccountIndexes)
	}
	if ix.Data == "" {
		t.Error("expected instruction data to be base58-encoded, got empty string")
	}
}

func TestBuildTxRejectsMissingAccounts(t *testing.T) {
	decoded := sampleDecodedTx(t)
	decoded.Message.AccountKeys = nil
	blockTime := int64(1_700_000_000)

	_, err := buildTx("sig-no-accounts", decoded, &blockTime)
	if err != ErrTxWithoutAccounts {
		t.Fatalf("err = %v, want %v", err, ErrTxWithoutAccounts)
	}
}

func TestBuildTxRejectsMissingSignatures(t *testing.T) {
	decoded := sampleDecodedTx(t)
	decoded.Signatures = nil
	blockTime := int64(1_700_000_000)

	_, err := buildTx("sig-no-signatures", decoded, &blockTime)
	if err != ErrTxWithoutSignatures {
		t.Fatalf("err = %v, want %v", err, ErrTxWithoutSignatures)
	}
}

func TestBuildTxRejectsMissingBlocktime(t *testing.T) {
	decoded := sampleDecodedTx(t)

	_, err := buildTx("sig-no-blocktime", decoded, nil)
	if err != ErrTxWithoutBlocktime {
		t.Fatalf("err = %v, want %v", err, ErrTxWithoutBlocktime)
	}
}
