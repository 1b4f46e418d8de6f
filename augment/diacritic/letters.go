package diacritic

import (
	"unicode"
)

// Tone is one of the six Vietnamese tones.
type Tone int

const (
	ToneLevel Tone = iota // ngang, no mark
	ToneAcute             // sắc
	ToneGrave             // huyền
	ToneHook              // hỏi
	ToneTilde             // ngã
	ToneDot               // nặng
	NumTones
)

// vowelForms lists, for each vowel shape, its form under each Tone.
var vowelForms = map[rune][NumTones]rune{
	'a': {'a', 'á', 'à', 'ả', 'ã', 'ạ'},
	'ă': {'ă', 'ắ', 'ằ', 'ẳ', 'ẵ', 'ặ'},
	'â': {'â', 'ấ', 'ầ', 'ẩ', 'ẫ', 'ậ'},
	'e': {'e', 'é', 'è', 'ẻ', 'ẽ', 'ẹ'},
	'ê': {'ê', 'ế', 'ề', 'ể', 'ễ', 'ệ'},
	'i': {'i', 'í', 'ì', 'ỉ', 'ĩ', 'ị'},
	'o': {'o', 'ó', 'ò', 'ỏ', 'õ', 'ọ'},
	'ô': {'ô', 'ố', 'ồ', 'ổ', 'ỗ', 'ộ'},
	'ơ': {'ơ', 'ớ', 'ờ', 'ở', 'ỡ', 'ợ'},
	'u': {'u', 'ú', 'ù', 'ủ', 'ũ', 'ụ'},
	'ư': {'ư', 'ứ', 'ừ', 'ử', 'ữ', 'ự'},
	'y': {'y', 'ý', 'ỳ', 'ỷ', 'ỹ', 'ỵ'},
}

// shapedLetters maps letters carrying a shape mark (circumflex, breve, horn, stroke) to their plain letter.
var shapedLetters = map[rune]rune{
	'ă': 'a', 'â': 'a', 'ê': 'e', 'ô': 'o', 'ơ': 'o', 'ư': 'u', 'đ': 'd',
}

// Letter is a lower-case Vietnamese letter split into its shape and tone.
type Letter struct {
	// Shape is the letter without tone, e.g. 'ơ' for 'ở'.
	Shape rune
	Tone  Tone
}

// letters indexes every toned vowel and shaped consonant, lower-case.
var letters = func() map[rune]Letter {
	m := make(map[rune]Letter, len(vowelForms)*int(NumTones)+1)
	for shape, forms := range vowelForms {
		for tone, r := range forms {
			m[r] = Letter{Shape: shape, Tone: Tone(tone)}
		}
	}
	m['đ'] = Letter{Shape: 'đ', Tone: ToneLevel}
	return m
}()

// Analyze splits a (lower or upper case) letter into shape and tone. The returned Letter is lower-case.
// It returns false for characters that are neither a vowel nor 'đ'.
func Analyze(r rune) (Letter, bool) {
	l, ok := letters[unicode.ToLower(r)]
	return l, ok
}

// Form returns the lower-case letter with the given shape and tone. It returns false if shape is not a
// vowel shape.
func Form(shape rune, tone Tone) (rune, bool) {
	forms, ok := vowelForms[shape]
	if !ok || tone < 0 || tone >= NumTones {
		return 0, false
	}
	return forms[tone], true
}

// Plain returns the letter without shape marks, e.g. 'ơ' -> 'o', 'đ' -> 'd'.
func Plain(shape rune) rune {
	if plain, ok := shapedLetters[shape]; ok {
		return plain
	}
	return shape
}

// IsShaped reports whether shape carries a shape mark.
func IsShaped(shape rune) bool {
	_, ok := shapedLetters[shape]
	return ok
}

// IsMarked reports whether r carries any diacritic: tone or shape. These are the characters typo
// augmenters can decompose.
func IsMarked(r rune) bool {
	l, ok := Analyze(r)
	return ok && (l.Tone != ToneLevel || IsShaped(l.Shape))
}

// MatchCase returns r upper-cased if model is upper-case.
func MatchCase(model, r rune) rune {
	if unicode.IsUpper(model) {
		return unicode.ToUpper(r)
	}
	return r
}
