// Package tts speaks responses with espeak-ng. One utterance plays at
// a time; a new Speak cancels the current one.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

int
violet_tts_init(void)
{
	if (espeak_Initialize(AUDIO_OUTPUT_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	return 0;
}

int
violet_tts_say(const char *text, const char *voice, int rate)
{
	espeak_Cancel();

	if (espeak_SetVoiceByName(voice) != EE_OK)
	{ espeak_SetVoiceByName("en"); }

	espeak_SetParameter(espeakRATE, rate, 0);

	return espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0,
		espeakCHARS_AUTO, NULL, NULL);
}

void
violet_tts_cancel(void)
{
	espeak_Cancel();
}

void
violet_tts_term(void)
{
	espeak_Synchronize();
	espeak_Terminate();
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"violet/internal/settings"
)

// espeak's default words-per-minute; scaled by the voiceSpeed setting.
const baseRate = 175

// Speaker reads the rate and voice from the live settings on every
// utterance, so a speed or language change applies to the next Speak
// without any rebuild.
type Speaker struct {
	settings *settings.Store
}

func NewSpeaker(st *settings.Store) (*Speaker, error) {
	if rc := C.violet_tts_init(); rc != 0 {
		return nil, fmt.Errorf("espeak init failed: %d", int(rc))
	}
	return &Speaker{settings: st}, nil
}

func (s *Speaker) Speak(text string) error {
	clean := Sanitize(text)
	if clean == "" {
		return nil
	}

	cur := s.settings.Current()
	rate := C.int(baseRate * cur.VoiceSpeed.Rate())

	ctext := C.CString(clean)
	defer C.free(unsafe.Pointer(ctext))
	cvoice := C.CString(string(cur.Language))
	defer C.free(unsafe.Pointer(cvoice))

	if rc := C.violet_tts_say(ctext, cvoice, rate); rc != 0 {
		return fmt.Errorf("espeak synth failed: %d", int(rc))
	}
	return nil
}

func (s *Speaker) Cancel() {
	C.violet_tts_cancel()
}

func (s *Speaker) Close() {
	C.violet_tts_term()
}
