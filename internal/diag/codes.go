package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Design description
	CfgInfo            Code = 1000
	CfgParseError      Code = 1001
	CfgMissingField    Code = 1002
	CfgBadKind         Code = 1003
	CfgDuplicateEntity Code = 1004

	// Parameter environments
	ElabInfo             Code = 2000
	ElabUnknownModule    Code = 2001
	ElabTooManyArgs      Code = 2002
	ElabUnknownParam     Code = 2003
	ElabDuplicateBinding Code = 2004

	// Scopes
	ScopeInfo           Code = 3000
	ScopeDuplicateDef   Code = 3001
	ScopeDefineTrace    Code = 3002
	ScopeUnknownPackage Code = 3003
	ScopeUnknownMember  Code = 3004

	// Ошибки I/O
	IOLoadFileError Code = 4001

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:          "Unknown error",
	CfgInfo:              "Design description information",
	CfgParseError:        "Design description could not be parsed",
	CfgMissingField:      "Missing required field",
	CfgBadKind:           "Unknown declaration kind",
	CfgDuplicateEntity:   "Duplicate entity in design description",
	ElabInfo:             "Elaboration information",
	ElabUnknownModule:    "Unknown module",
	ElabTooManyArgs:      "Too many positional parameter arguments",
	ElabUnknownParam:     "No such parameter",
	ElabDuplicateBinding: "Parameter bound more than once",
	ScopeInfo:            "Scope information",
	ScopeDuplicateDef:    "Name already declared",
	ScopeDefineTrace:     "Name definition trace",
	ScopeUnknownPackage:  "Unknown package",
	ScopeUnknownMember:   "No such member in package",
	IOLoadFileError:      "I/O load file error",
	ObsInfo:              "Observability information",
	ObsTimings:           "Pipeline timings",
}

// ID returns the stable textual identifier, e.g. ELB2003.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("ELB%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SCP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return c.ID()
}
