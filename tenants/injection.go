package tenants

import "net/url"

const (
	ParamDivisionID       = "divisionId"
	ParamShowAllDivisions = "showAllDivisions"
)

// InjectionKind enumerates the outcomes of tenant resolution.
type InjectionKind int

const (
	// InjectNone leaves the request unscoped.
	InjectNone InjectionKind = iota
	// InjectAll requests every division.
	InjectAll
	// InjectDivision scopes the request to one division.
	InjectDivision
)

func (k InjectionKind) String() string {
	switch k {
	case InjectAll:
		return "all"
	case InjectDivision:
		return "division"
	default:
		return "none"
	}
}

// Injection is the tenant scoping decided for one request.
type Injection struct {
	Kind       InjectionKind
	DivisionID DivisionID
}

var None = Injection{Kind: InjectNone}

func All() Injection {
	return Injection{Kind: InjectAll, DivisionID: AllDivisions}
}

func Division(id DivisionID) Injection {
	return Injection{Kind: InjectDivision, DivisionID: id}
}

// AllEncoding is how a transport spells "all divisions" on the wire.
type AllEncoding int

const (
	// EncodeDivisionIDAll sends divisionId=all.
	EncodeDivisionIDAll AllEncoding = iota
	// EncodeShowAllDivisions sends showAllDivisions=true.
	EncodeShowAllDivisions
)

func (e AllEncoding) String() string {
	if e == EncodeShowAllDivisions {
		return "showAllDivisions"
	}
	return "divisionId"
}

// Params renders the injection as query parameters using the given
// encoding. InjectNone yields no parameters.
func (i Injection) Params(enc AllEncoding) url.Values {
	switch i.Kind {
	case InjectAll:
		if enc == EncodeShowAllDivisions {
			return url.Values{ParamShowAllDivisions: {"true"}}
		}
		return url.Values{ParamDivisionID: {AllDivisions}}
	case InjectDivision:
		return url.Values{ParamDivisionID: {i.DivisionID.String()}}
	default:
		return url.Values{}
	}
}
