package amqp

import (
	"encoding/json"
	"time"
)

// ReceiptSyncMessage asks the worker to export one receipt to the ledger.
// It carries only the id; the worker fetches the full receipt from storage.
type ReceiptSyncMessage struct {
	ReceiptID string    `json:"receipt_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptSyncMessage(receiptID string) *ReceiptSyncMessage {
	return &ReceiptSyncMessage{
		ReceiptID: receiptID,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptSyncMessageFromJSON(data []byte) (*ReceiptSyncMessage, error) {
	var msg ReceiptSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
