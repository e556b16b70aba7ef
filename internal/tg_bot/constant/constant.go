package constant

const (
	EMOJI_BUS          = "\U0001F68C"           //🚌
	EMOJI_METRO        = "\U0001F687"           //🚇
	EMOJI_BELL         = "\U0001F514"           //🔔
	EMOJI_HOURGLASS    = "\U000023F3"           //⏳
	EMOJI_PIN          = "\U0001F4CD"           //📍
	EMOJI_CITY         = "\U0001F3D9"           //🏙
	EMOJI_EYES         = "\U0001F440"           //👀
	EMOJI_BUS_STOP     = "\U0001F68F"           //🚏
	EMOJI_BEGINNER     = "\U0001F530"           //🔰
	EMOJI_CROSS_MARK   = "\U0000274C"           //❌
	EMOJI_PROHIBITED   = "\U0001F6AB"           //🚫
	EMOJI_WORRIED_FACE = "\U0001F61F"           //😟
	EMOJI_WARNING      = "\U000026A0\U0000FE0F" //⚠️

	BUTTON_TEXT_CHANGE_ADDRESS = "<< Change address"
	BUTTON_TEXT_CANCEL         = "<< Cancel"

	// Prefix shared by navigation buttons, never a valid station name.
	BUTTON_PREFIX_NAVIGATION = "<<"

	COMMAND_START  = "start"
	COMMAND_HELP   = "help"
	COMMAND_CANCEL = "cancel"

	// Telegram rejects callback data longer than this many bytes.
	CALLBACK_DATA_MAX_BYTES = 64
)
