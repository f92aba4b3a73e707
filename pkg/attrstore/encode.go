package attrstore

import "strconv"

// attrInfoChar marks a value string as carrying an "owner:flags:text"
// prefix, matching the \x01 ATR_INFO_CHAR convention read by
// eval.StripAttrPrefix.
const attrInfoChar = '\x01'

// Encode packs owner/flags/text into the on-object string form.
func Encode(owner int, flags int, text string) string {
	return string([]byte{attrInfoChar}) + strconv.Itoa(owner) + ":" + strconv.Itoa(flags) + ":" + text
}

// Decode splits a raw attribute value into owner, flags and text. A
// value with no \x01 prefix is treated as owner-less, flag-less plain
// text (matches values written before the store interposed on them, or
// by code that bypasses the store).
func Decode(raw string) (owner, flags int, text string) {
	if len(raw) == 0 || raw[0] != attrInfoChar {
		return 0, 0, raw
	}
	colon1, colon2 := -1, -1
	for i := 1; i < len(raw); i++ {
		if raw[i] == ':' {
			if colon1 == -1 {
				colon1 = i
			} else {
				colon2 = i
				break
			}
		}
	}
	if colon1 == -1 || colon2 == -1 {
		return 0, 0, raw[1:]
	}
	owner, _ = strconv.Atoi(raw[1:colon1])
	flags, _ = strconv.Atoi(raw[colon1+1 : colon2])
	text = raw[colon2+1:]
	return owner, flags, text
}
