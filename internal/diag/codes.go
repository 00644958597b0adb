package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// resources
	ResInfo             Code = 1000
	ResGenerationFailed Code = 1001
	ResDuplicateName    Code = 1002
	ResInvalidTable     Code = 1003

	// compile modules
	ModInfo            Code = 2000
	ModUnsupportedUnit Code = 2001
	ModDuplicateRef    Code = 2002
	ModChecksum        Code = 2003
	ModPromoted        Code = 2004
	ModSymbolsDropped  Code = 2005

	// compiler
	CmpInfo               Code = 3000
	CmpEmptySource        Code = 3001
	CmpDuplicateSource    Code = 3002
	CmpUnresolvedRef      Code = 3003
	CmpDuplicateRef       Code = 3004
	CmpNoSources          Code = 3005
	CmpDanglingDocComment Code = 3006

	// io
	IOLoadFileError Code = 4001

	// project
	ProjInfo             Code = 5000
	ProjMissingProject   Code = 5001
	ProjSelfReference    Code = 5002
	ProjReferenceCycle   Code = 5003
	ProjDependencyFailed Code = 5004
	ProjDuplicateProject Code = 5005
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		ResInfo:               "Resource information",
		ResGenerationFailed:   "Resource generation failed",
		ResDuplicateName:      "Duplicate resource name",
		ResInvalidTable:       "Invalid string table",
		ModInfo:               "Compile module information",
		ModUnsupportedUnit:    "Compilation unit not supported by module",
		ModDuplicateRef:       "Duplicate metadata reference removed",
		ModChecksum:           "Assembly checksum",
		ModPromoted:           "Warning promoted to error",
		ModSymbolsDropped:     "Symbols dropped",
		CmpInfo:               "Compiler information",
		CmpEmptySource:        "Empty source file",
		CmpDuplicateSource:    "Duplicate source file",
		CmpUnresolvedRef:      "Unresolved metadata reference",
		CmpDuplicateRef:       "Duplicate metadata reference",
		CmpNoSources:          "No source files",
		CmpDanglingDocComment: "Documentation comment is not attached to a declaration",
		IOLoadFileError:       "I/O load file error",
		ProjInfo:              "Project information",
		ProjMissingProject:    "Missing project",
		ProjSelfReference:     "Project references itself",
		ProjReferenceCycle:    "Project reference cycle",
		ProjDependencyFailed:  "Dependency project failed",
		ProjDuplicateProject:  "Duplicate project",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("MOD%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CMP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
