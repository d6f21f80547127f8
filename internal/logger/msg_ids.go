package logger

// Most non-error log messages are given a message ID that can be used to set
// the log level for that message. Errors do not get a message ID because you
// cannot turn errors into non-errors (otherwise the rewrite would incorrectly
// succeed). Messages that should never be overridden use "MsgID_None".
type MsgID = uint8

const (
	MsgID_None MsgID = iota

	// Rewriting
	MsgID_Rewrite_ShadowedPrimitive
	MsgID_Rewrite_IgnoredImportAttributes
	MsgID_Rewrite_LocalRequireBinding

	MsgID_END // Keep this at the end (used only for tests)
)

func StringToMsgIDs(str string, logLevel LogLevel, overrides map[MsgID]LogLevel) {
	switch str {
	case "shadowed-primitive":
		overrides[MsgID_Rewrite_ShadowedPrimitive] = logLevel
	case "ignored-import-attributes":
		overrides[MsgID_Rewrite_IgnoredImportAttributes] = logLevel
	case "local-require-binding":
		overrides[MsgID_Rewrite_LocalRequireBinding] = logLevel

	default:
		// Ignore invalid entries since this message id may have
		// been renamed/removed since when this code was written
	}
}

func MsgIDToString(id MsgID) string {
	switch id {
	case MsgID_Rewrite_ShadowedPrimitive:
		return "shadowed-primitive"
	case MsgID_Rewrite_IgnoredImportAttributes:
		return "ignored-import-attributes"
	case MsgID_Rewrite_LocalRequireBinding:
		return "local-require-binding"
	}

	return ""
}
