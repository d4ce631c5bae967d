package backend

// Type identifies a ledger backend implementation.
type Type string

const (
	ExcelBackend  Type = "excel"
	MemoryBackend Type = "memory"
)

// IsValid reports whether the backend type is supported.
func (t Type) IsValid() bool {
	switch t {
	case ExcelBackend, MemoryBackend:
		return true
	}
	return false
}

// Config carries everything a factory needs to build a backend.
type Config struct {
	Type       Type
	LedgerFile string
	SheetName  string
}
