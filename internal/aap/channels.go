package aap

// Channel ids carried in the frame header. The set is fixed by the protocol
// and stable for the lifetime of a session.
const (
	ChannelControl      uint8 = 0
	ChannelSensor       uint8 = 1
	ChannelVideo        uint8 = 2
	ChannelInput        uint8 = 3
	ChannelAudio1       uint8 = 4
	ChannelAudio2       uint8 = 5
	ChannelAudio        uint8 = 6
	ChannelMic          uint8 = 7
	ChannelBluetooth    uint8 = 8
	ChannelPlayback     uint8 = 9
	ChannelNavigation   uint8 = 10
	ChannelNotification uint8 = 11
	ChannelPhone        uint8 = 12
)

// ChannelName returns a human-readable name for logging.
func ChannelName(ch uint8) string {
	switch ch {
	case ChannelControl:
		return "CONTROL"
	case ChannelSensor:
		return "SENSOR"
	case ChannelVideo:
		return "VIDEO"
	case ChannelInput:
		return "INPUT"
	case ChannelAudio1:
		return "AUDIO1"
	case ChannelAudio2:
		return "AUDIO2"
	case ChannelAudio:
		return "AUDIO"
	case ChannelMic:
		return "MIC"
	case ChannelBluetooth:
		return "BLUETOOTH"
	case ChannelPlayback:
		return "MUSIC_PLAYBACK"
	case ChannelNavigation:
		return "NAVIGATION"
	case ChannelNotification:
		return "NOTIFICATION"
	case ChannelPhone:
		return "PHONE"
	default:
		return "UNKNOWN"
	}
}

// Category is the traffic class a channel's messages are dispatched under.
// Each category gets its own lane (queue + worker) in the dispatcher.
type Category uint8

const (
	CategoryAudio Category = iota
	CategoryVideo
	CategoryControl

	// CategoryCount is the number of traffic categories. Lanes are stored
	// in arrays indexed by category ordinal, so keep this last.
	CategoryCount
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAudio:
		return "audio"
	case CategoryVideo:
		return "video"
	case CategoryControl:
		return "control"
	default:
		return "unknown"
	}
}

// Valid reports whether c names a real category.
func (c Category) Valid() bool {
	return c < CategoryCount
}

// IsAudioChannel reports whether ch carries audio samples.
func IsAudioChannel(ch uint8) bool {
	return ch == ChannelAudio || ch == ChannelAudio1 || ch == ChannelAudio2
}

// IsVideoChannel reports whether ch carries the video stream.
func IsVideoChannel(ch uint8) bool {
	return ch == ChannelVideo
}

// CategoryFor maps a channel id to its traffic category. Audio channels get
// the audio lane, video gets the video lane, everything else (control,
// input, sensors, metadata) shares the control lane. The mapping is static
// for the session.
func CategoryFor(ch uint8) Category {
	switch {
	case IsAudioChannel(ch):
		return CategoryAudio
	case IsVideoChannel(ch):
		return CategoryVideo
	default:
		return CategoryControl
	}
}
