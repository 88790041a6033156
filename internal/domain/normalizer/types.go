package normalizer

// DefaultKeyLength is the number of narration characters used for the
// first/last key slices.
const DefaultKeyLength = 15

// Config holds normalizer configuration
type Config struct {
	KeyLength int     // Narration slice length for helper keys (default: 15)
	Aliases   Aliases // Accepted column names per logical field
}

// Aliases lists the accepted column names for each logical field, in
// preference order.
type Aliases struct {
	Date      []string `yaml:"date"`
	Narration []string `yaml:"narration"`
	Amount    []string `yaml:"amount"`
	Reference []string `yaml:"reference"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		KeyLength: DefaultKeyLength,
		Aliases:   DefaultAliases(),
	}
}

// DefaultAliases returns the column variants seen across teller, ledger and
// general-ledger exports.
func DefaultAliases() Aliases {
	return Aliases{
		Date:      []string{"Date", "DATE", "date", "Transaction Date", "Value Date", "Posting Date"},
		Narration: []string{"Narration", "Narrative", "NARRATION", "Description", "Details", "Remarks"},
		Amount:    []string{"Amount", "Amount (NGN)", "AMOUNT", "amount", "Value"},
		Reference: []string{"Reference", "Ref", "Ticket No", "Ticket Number", "Reference Number"},
	}
}

// WithDefaults fills every empty alias list from DefaultAliases.
func (a Aliases) WithDefaults() Aliases {
	def := DefaultAliases()
	if len(a.Date) == 0 {
		a.Date = def.Date
	}
	if len(a.Narration) == 0 {
		a.Narration = def.Narration
	}
	if len(a.Amount) == 0 {
		a.Amount = def.Amount
	}
	if len(a.Reference) == 0 {
		a.Reference = def.Reference
	}
	return a
}
