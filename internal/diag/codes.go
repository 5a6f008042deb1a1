package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разбор директив
	AttrInfo               Code = 1000
	AttrMalformedArguments Code = 1001
	AttrInvalidLiteral     Code = 1002
	AttrUnknownArgument    Code = 1003
	AttrDuplicateArgument  Code = 1004
	AttrMissingArgument    Code = 1005
	AttrUnknownDirective   Code = 1006

	// Переписывание шаблонов
	GenInfo                  Code = 2000
	GenUnsupportedItemKind   Code = 2001
	GenMissingBuildStep      Code = 2002
	GenFinalRequested        Code = 2003
	GenConflictingDirectives Code = 2004
	GenFlagOnConstant        Code = 2005
	GenStaleTable            Code = 2006
	GenUnforwardableParam    Code = 2007

	// Сканер приоритетов
	ScanInfo               Code = 3000
	ScanGlobError          Code = 3001
	ScanIoError            Code = 3002
	ScanParseError         Code = 3003
	ScanPriorityTie        Code = 3004
	ScanFlagWithoutDefault Code = 3005

	// Ошибки I/O
	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002
	IOTableError     Code = 4003

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:              "Unknown error",
		AttrInfo:                 "Directive information",
		AttrMalformedArguments:   "Malformed directive arguments",
		AttrInvalidLiteral:       "Invalid literal in directive arguments",
		AttrUnknownArgument:      "Unknown directive argument",
		AttrDuplicateArgument:    "Duplicate directive argument",
		AttrMissingArgument:      "Missing required directive argument",
		AttrUnknownDirective:     "Unknown overrider directive",
		GenInfo:                  "Rewriter information",
		GenUnsupportedItemKind:   "Directive applied to an unsupported declaration",
		GenMissingBuildStep:      "Predicate table does not cover this file",
		GenFinalRequested:        "Final override requested",
		GenConflictingDirectives: "Conflicting override directives",
		GenFlagOnConstant:        "Flag overrides are not supported on constants",
		GenStaleTable:            "Predicate table is out of date",
		GenUnforwardableParam:    "Parameter cannot be forwarded by the flag dispatcher",
		ScanInfo:                 "Scanner information",
		ScanGlobError:            "Invalid glob pattern",
		ScanIoError:              "Cannot read template file",
		ScanParseError:           "Template file does not parse",
		ScanPriorityTie:          "Equal-priority overrides",
		ScanFlagWithoutDefault:   "Flag override without a default candidate",
		IOLoadFileError:          "I/O load file error",
		IOWriteFileError:         "I/O write file error",
		IOTableError:             "Predicate table I/O error",
		ObsInfo:                  "Observability information",
		ObsTimings:               "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("ATR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SCN%04d", ic)
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
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
