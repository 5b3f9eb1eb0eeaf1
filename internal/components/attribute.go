package components

// AttributeDecl is an attribute declaration, global or local.
type AttributeDecl struct {
	Name QName
	Type *SimpleType

	Default    string
	Fixed      string
	HasDefault bool
	HasFixed   bool
}

// UseKind is the required/optional/prohibited marker of an attribute use.
type UseKind uint8

const (
	UseOptional UseKind = iota
	UseRequired
	UseProhibited
)

// String returns the schema attribute value for the use kind.
func (u UseKind) String() string {
	switch u {
	case UseRequired:
		return "required"
	case UseProhibited:
		return "prohibited"
	default:
		return "optional"
	}
}

// AttributeUse attaches a declaration to a complex type with a use kind
// and optional local default/fixed overrides.
type AttributeUse struct {
	Decl *AttributeDecl
	Use  UseKind

	Default    string
	Fixed      string
	HasDefault bool
	HasFixed   bool
}

// EffectiveDefault returns the default value in force for the use, if any.
func (u *AttributeUse) EffectiveDefault() (string, bool) {
	if u.HasDefault {
		return u.Default, true
	}
	if u.Decl.HasDefault {
		return u.Decl.Default, true
	}
	return "", false
}

// EffectiveFixed returns the fixed value in force for the use, if any.
func (u *AttributeUse) EffectiveFixed() (string, bool) {
	if u.HasFixed {
		return u.Fixed, true
	}
	if u.Decl.HasFixed {
		return u.Decl.Fixed, true
	}
	return "", false
}
