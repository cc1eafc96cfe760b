package lang

import (
	"fmt"
	"strings"
)

// whisperLanguages holds the ISO 639-1 codes the Whisper model family
// accepts. Not the full ISO registry; codes can be added as users ask
// for them. Regional variants validate against their base code.
var whisperLanguages = func() map[string]struct{} {
	codes := strings.Fields(`
		af ar bg bn ca cs da de el en es et fa fi fr gu he hi hr hu id
		it ja kn ko lt lv mk ml mr ms nl no pa pl pt ro ru sk sl sr sv
		sw ta te th tl tr uk ur vi zh`)
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}()

// Normalize lowercases a language code and converts underscore locale
// separators to hyphens: "PT_BR" becomes "pt-br".
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// Validate accepts ISO 639-1 codes ("en") and locales ("pt-BR", any
// casing or separator). Empty means auto-detect and is valid. Unknown
// base languages return an error wrapping ErrInvalid.
func Validate(code string) error {
	if code == "" {
		return nil
	}
	if _, ok := whisperLanguages[BaseCode(code)]; !ok {
		return fmt.Errorf("%w %q, expected an ISO 639-1 code such as 'en', 'fr', or 'pt-BR'",
			ErrInvalid, code)
	}
	return nil
}

// BaseCode reduces a locale to its base language: "pt-BR" becomes "pt".
// Transcription engines take base codes only, not regional variants.
func BaseCode(code string) string {
	base, _, _ := strings.Cut(Normalize(code), "-")
	return base
}
