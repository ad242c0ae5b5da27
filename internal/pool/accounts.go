package pool

import (
	"encoding/binary"

	"swap-pool-go/pkg/anchor"
)

// ControllerRecordSize is the discriminator plus token_count
const ControllerRecordSize = 8 + 8

// ControllerRecord is the persisted state of the vault controller
type ControllerRecord struct {
	// reserved counter, written as zero and never read
	TokenCount uint64
}

// Marshal encodes the record with its account discriminator
func (r *ControllerRecord) Marshal() []byte {
	data := make([]byte, 0, ControllerRecordSize)
	data = append(data, anchor.ControllerDiscriminator.Bytes()...)
	return binary.LittleEndian.AppendUint64(data, r.TokenCount)
}

// UnmarshalControllerRecord decodes a controller record, checking its discriminator
func UnmarshalControllerRecord(data []byte) (*ControllerRecord, error) {
	if len(data) < 8 {
		return nil, ErrAccountDidNotDeserialize
	}
	if err := anchor.ValidateDiscriminator(data, anchor.ControllerDiscriminator); err != nil {
		return nil, ErrAccountDiscriminatorMismatch
	}
	if len(data) < ControllerRecordSize {
		return nil, ErrAccountDidNotDeserialize
	}

	return &ControllerRecord{
		TokenCount: binary.LittleEndian.Uint64(data[8:16]),
	}, nil
}
