package engine

import "strings"

// SelectTrack chooses the best caption track for a language preference and
// manual/auto flags. Manual tracks are authoritative and win ties; auto
// fallback is opt-in per deployment (allowAuto) or per request (preferAuto),
// never implicit. Pure function; performs no I/O.
func SelectTrack(tracks []CaptionTrack, lang string, preferAuto, allowAuto bool) (CaptionTrack, error) {
	var manual, auto []CaptionTrack
	for _, t := range tracks {
		if t.Info.IsAuto {
			auto = append(auto, t)
		} else {
			manual = append(manual, t)
		}
	}

	if lang != "" {
		if t, ok := matchLang(manual, lang); ok {
			return t, nil
		}
	} else if len(manual) > 0 && !preferAuto {
		return manual[0], nil
	}

	if preferAuto || allowAuto {
		if lang != "" {
			if t, ok := matchLang(auto, lang); ok {
				return t, nil
			}
		}
		if len(auto) > 0 {
			return auto[0], nil
		}
	}

	return CaptionTrack{}, E(CodeNoCaptionsAvailable, "no usable caption track")
}

// matchLang scans for an exact case-insensitive tag match, then for a match
// on the primary subtag before the first hyphen ("en" matches "en-US").
// Provider order is preserved within each pass.
func matchLang(tracks []CaptionTrack, lang string) (CaptionTrack, bool) {
	want := strings.ToLower(lang)
	for _, t := range tracks {
		if strings.ToLower(t.Info.Lang) == want {
			return t, true
		}
	}
	primary := primarySubtag(want)
	for _, t := range tracks {
		if primarySubtag(strings.ToLower(t.Info.Lang)) == primary {
			return t, true
		}
	}
	return CaptionTrack{}, false
}

func primarySubtag(tag string) string {
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		return tag[:i]
	}
	return tag
}
