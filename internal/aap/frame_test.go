package aap

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Channel: ChannelAudio, Flags: FlagEncrypted, Length: 0x1234}

	var buf [HeaderSize]byte
	PutHeader(buf[:], h)

	if got := ParseHeader(buf[:]); got != h {
		t.Errorf("ParseHeader = %+v, want %+v", got, h)
	}
	if buf[2] != 0x12 || buf[3] != 0x34 {
		t.Errorf("length bytes = %02x %02x, want big-endian 12 34", buf[2], buf[3])
	}
}

func TestHeaderEncrypted(t *testing.T) {
	enc := Header{Flags: FlagEncrypted}
	if !enc.Encrypted() {
		t.Error("Encrypted() = false with 0x08 set")
	}
	plain := Header{Flags: 0x01}
	if plain.Encrypted() {
		t.Error("Encrypted() = true without 0x08")
	}
}

func TestAppendFrame(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	frame := AppendFrame(nil, ChannelVideo, FlagEncrypted, payload)

	want := []byte{ChannelVideo, FlagEncrypted, 0x00, 0x03, 0xAA, 0xBB, 0xCC}
	if !bytes.Equal(frame, want) {
		t.Errorf("AppendFrame = % x, want % x", frame, want)
	}
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		channel uint8
		want    Category
	}{
		{ChannelAudio, CategoryAudio},
		{ChannelAudio1, CategoryAudio},
		{ChannelAudio2, CategoryAudio},
		{ChannelVideo, CategoryVideo},
		{ChannelControl, CategoryControl},
		{ChannelInput, CategoryControl},
		{ChannelSensor, CategoryControl},
		{ChannelMic, CategoryControl},
		{ChannelNavigation, CategoryControl},
		{ChannelPhone, CategoryControl},
		{200, CategoryControl}, // unknown ids fall through to control
	}

	for _, tt := range tests {
		if got := CategoryFor(tt.channel); got != tt.want {
			t.Errorf("CategoryFor(%s) = %s, want %s", ChannelName(tt.channel), got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	if CategoryAudio.String() != "audio" || CategoryVideo.String() != "video" || CategoryControl.String() != "control" {
		t.Errorf("unexpected category names: %s %s %s", CategoryAudio, CategoryVideo, CategoryControl)
	}
	if Category(77).String() != "unknown" {
		t.Errorf("Category(77).String() = %s, want unknown", Category(77))
	}
	if Category(77).Valid() {
		t.Error("Category(77).Valid() = true")
	}
}
