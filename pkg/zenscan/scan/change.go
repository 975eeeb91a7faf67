package scan

// Operation is the change-type tag of a scan list change record.
type Operation string

const (
	OpAdd    Operation = "Add"
	OpUpdate Operation = "Update"
	OpRemove Operation = "Remove"
	OpClear  Operation = "Clear"
)

// Change is one Add, Update, Remove or Clear. The set is closed.
type Change interface {
	Op() Operation
	// ScanID is empty for Clear.
	ScanID() string
	isChange()
}

// Add announces a scan not previously known.
type Add struct{ Scan Descriptor }

// Update replaces a known scan's snapshot.
type Update struct{ Scan Descriptor }

// Remove drops a scan by id.
type Remove struct{ ID string }

// Clear discards every known scan.
type Clear struct{}

func (Add) Op() Operation    { return OpAdd }
func (Update) Op() Operation { return OpUpdate }
func (Remove) Op() Operation { return OpRemove }
func (Clear) Op() Operation  { return OpClear }

func (c Add) ScanID() string    { return c.Scan.ID }
func (c Update) ScanID() string { return c.Scan.ID }
func (c Remove) ScanID() string { return c.ID }
func (Clear) ScanID() string    { return "" }

func (Add) isChange()    {}
func (Update) isChange() {}
func (Remove) isChange() {}
func (Clear) isChange()  {}
