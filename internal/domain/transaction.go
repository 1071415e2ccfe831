package domain

// TypeUnknown is the classification used for records without a type.
const TypeUnknown = "UNKNOWN"

// NativeTransfer is a single lamport movement inside a transaction.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"` // lamports
}

// TransactionSummary is one entry of an address transaction history page.
// Only Signature and NativeTransfers drive pagination.
type TransactionSummary struct {
	Signature       string           `json:"signature"`
	Type            string           `json:"type,omitempty"`
	Timestamp       int64            `json:"timestamp,omitempty"` // unix seconds
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
}

// NativeVolume returns the sum of absolute native transfer amounts in lamports.
func (t *TransactionSummary) NativeVolume() uint64 {
	var total uint64
	for _, nt := range t.NativeTransfers {
		if nt.Amount < 0 {
			total += uint64(-nt.Amount)
		} else {
			total += uint64(nt.Amount)
		}
	}
	return total
}

// ParsedTransaction is a fully parsed transaction record.
type ParsedTransaction struct {
	Signature   string `json:"signature"`
	Type        string `json:"type"`
	Source      string `json:"source,omitempty"`
	TokenSymbol string `json:"tokenSymbol,omitempty"`
	Fee         int64  `json:"fee,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// TypeOrUnknown returns the record type, or TypeUnknown when missing.
func (p *ParsedTransaction) TypeOrUnknown() string {
	if p.Type == "" {
		return TypeUnknown
	}
	return p.Type
}
