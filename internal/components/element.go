package components

// ElementDecl is an element declaration, global or local.
type ElementDecl struct {
	Name QName
	Type Type

	Nillable bool
	Abstract bool

	Default    string
	Fixed      string
	HasDefault bool
	HasFixed   bool

	// SubstitutionGroup names the head element this declaration may
	// substitute for; zero when none.
	SubstitutionGroup QName

	// Global marks a top-level declaration, eligible as a document root
	// and as a substitution group member.
	Global bool

	Constraints []*IdentityConstraint
}

func (*ElementDecl) isTerm() {}

// ProcessContents is the wildcard validation mode for matched content.
type ProcessContents uint8

const (
	// ProcessStrict requires a resolvable declaration and validates against it.
	ProcessStrict ProcessContents = iota
	// ProcessLax validates when a declaration resolves, skips otherwise.
	ProcessLax
	// ProcessSkip performs no validation of the matched content.
	ProcessSkip
)

// String returns the schema attribute value for the mode.
func (p ProcessContents) String() string {
	switch p {
	case ProcessLax:
		return "lax"
	case ProcessSkip:
		return "skip"
	default:
		return "strict"
	}
}

// NamespaceMode is the wildcard namespace constraint kind.
type NamespaceMode uint8

const (
	// NSAny allows any namespace.
	NSAny NamespaceMode = iota
	// NSOther allows any namespace except the wildcard's target namespace.
	NSOther
	// NSList allows only the listed namespaces.
	NSList
)

// Wildcard is an element or attribute wildcard (xs:any, xs:anyAttribute).
type Wildcard struct {
	Mode NamespaceMode
	// List holds allowed namespaces for NSList. The empty string entry
	// stands for ##local (unqualified names).
	List []string
	// Target is the declaring schema's target namespace, which NSOther
	// excludes.
	Target  string
	Process ProcessContents
}

func (*Wildcard) isTerm() {}

// Allows reports whether the wildcard's namespace constraint admits the
// given namespace.
func (w *Wildcard) Allows(ns string) bool {
	switch w.Mode {
	case NSAny:
		return true
	case NSOther:
		return ns != w.Target && ns != ""
	default:
		for _, allowed := range w.List {
			if allowed == ns {
				return true
			}
		}
		return false
	}
}
