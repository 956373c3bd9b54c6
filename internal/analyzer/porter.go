package analyzer

// Stemmer reduces English words to a canonical root form using the Porter
// suffix-stripping algorithm: plural and -ed/-ing removal (1a/1b/1c), double
// suffix reduction (2), -ic/-ful/-ness handling (3), residual suffix removal
// in long stems (4), and final -e / double-l cleanup (5a/5b).
//
// A Stemmer works over a reused byte buffer and is not safe for concurrent
// use; create one per goroutine. The zero value is ready to use.
type Stemmer struct {
	b []byte
	j int // tentative stem end set by ends
	k int // current end of the word
}

// Stem returns the stem of word. Words of length two or less pass through
// unchanged. Input is expected to be lowercase ASCII as produced by the
// tokenizer.
func (s *Stemmer) Stem(word string) string {
	if len(word) <= 2 {
		return word
	}
	s.b = append(s.b[:0], word...)
	s.k = len(s.b) - 1
	s.j = 0

	s.step1ab()
	s.step1c()
	s.step2()
	s.step3()
	s.step4()
	s.step5()

	return string(s.b[:s.k+1])
}

// cons reports whether b[i] is a consonant. 'y' counts as a consonant at the
// start of the word or after a vowel.
func (s *Stemmer) cons(i int) bool {
	switch s.b[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !s.cons(i - 1)
	default:
		return true
	}
}

// m measures the number of consonant-vowel sequences in b[0..j].
func (s *Stemmer) m() int {
	n, i := 0, 0
	for {
		if i > s.j {
			return n
		}
		if !s.cons(i) {
			break
		}
		i++
	}
	i++
	for {
		for {
			if i > s.j {
				return n
			}
			if s.cons(i) {
				break
			}
			i++
		}
		i++
		n++
		for {
			if i > s.j {
				return n
			}
			if !s.cons(i) {
				break
			}
			i++
		}
		i++
	}
}

// vowelInStem reports whether b[0..j] contains a vowel.
func (s *Stemmer) vowelInStem() bool {
	for i := 0; i <= s.j; i++ {
		if !s.cons(i) {
			return true
		}
	}
	return false
}

// doublec reports whether b[j-1..j] is a double consonant.
func (s *Stemmer) doublec(j int) bool {
	if j < 1 {
		return false
	}
	if s.b[j] != s.b[j-1] {
		return false
	}
	return s.cons(j)
}

// cvc reports whether b[i-2..i] has the form consonant-vowel-consonant with
// the final consonant not w, x, or y. Used to restore a trailing e (cav(e),
// lov(e)) and to keep one in place.
func (s *Stemmer) cvc(i int) bool {
	if i < 2 || !s.cons(i) || s.cons(i-1) || !s.cons(i-2) {
		return false
	}
	ch := s.b[i]
	return ch != 'w' && ch != 'x' && ch != 'y'
}

// ends reports whether b[0..k] ends with suffix; on a match j is set to the
// offset just before the suffix.
func (s *Stemmer) ends(suffix string) bool {
	l := len(suffix)
	o := s.k - l + 1
	if o < 0 {
		return false
	}
	if string(s.b[o:s.k+1]) != suffix {
		return false
	}
	s.j = s.k - l
	return true
}

// setto replaces the suffix after j with the given string.
func (s *Stemmer) setto(suffix string) {
	need := s.j + 1 + len(suffix)
	for len(s.b) < need {
		s.b = append(s.b, 0)
	}
	copy(s.b[s.j+1:], suffix)
	s.k = s.j + len(suffix)
}

// r applies setto when the preceding stem has a nonzero measure.
func (s *Stemmer) r(suffix string) {
	if s.m() > 0 {
		s.setto(suffix)
	}
}

// step1ab removes plurals and -ed or -ing:
// caresses -> caress, ponies -> poni, cats -> cat, running -> run.
func (s *Stemmer) step1ab() {
	if s.b[s.k] == 's' {
		switch {
		case s.ends("sses"):
			s.k -= 2
		case s.ends("ies"):
			s.setto("i")
		case s.b[s.k-1] != 's':
			s.k--
		}
	}
	if s.ends("eed") {
		if s.m() > 0 {
			s.k--
		}
	} else if (s.ends("ed") || s.ends("ing")) && s.vowelInStem() {
		s.k = s.j
		switch {
		case s.ends("at"):
			s.setto("ate")
		case s.ends("bl"):
			s.setto("ble")
		case s.ends("iz"):
			s.setto("ize")
		case s.doublec(s.k):
			s.k--
			if ch := s.b[s.k]; ch == 'l' || ch == 's' || ch == 'z' {
				s.k++
			}
		default:
			if s.m() == 1 && s.cvc(s.k) {
				s.setto("e")
			}
		}
	}
}

// step1c turns a terminal y to i when there is another vowel in the stem.
func (s *Stemmer) step1c() {
	if s.ends("y") && s.vowelInStem() {
		s.b[s.k] = 'i'
	}
}

// step2 maps double suffixes to single ones: relational -> relate,
// conditional -> condition.
func (s *Stemmer) step2() {
	if s.k < 1 {
		return
	}
	switch s.b[s.k-1] {
	case 'a':
		if s.ends("ational") {
			s.r("ate")
		} else if s.ends("tional") {
			s.r("tion")
		}
	case 'c':
		if s.ends("enci") {
			s.r("ence")
		} else if s.ends("anci") {
			s.r("ance")
		}
	case 'e':
		if s.ends("izer") {
			s.r("ize")
		}
	case 'l':
		if s.ends("bli") {
			s.r("ble")
		} else if s.ends("alli") {
			s.r("al")
		} else if s.ends("entli") {
			s.r("ent")
		} else if s.ends("eli") {
			s.r("e")
		} else if s.ends("ousli") {
			s.r("ous")
		}
	case 'o':
		if s.ends("ization") {
			s.r("ize")
		} else if s.ends("ation") {
			s.r("ate")
		} else if s.ends("ator") {
			s.r("ate")
		}
	case 's':
		if s.ends("alism") {
			s.r("al")
		} else if s.ends("iveness") {
			s.r("ive")
		} else if s.ends("fulness") {
			s.r("ful")
		} else if s.ends("ousness") {
			s.r("ous")
		}
	case 't':
		if s.ends("aliti") {
			s.r("al")
		} else if s.ends("iviti") {
			s.r("ive")
		} else if s.ends("biliti") {
			s.r("ble")
		}
	case 'g':
		if s.ends("logi") {
			s.r("log")
		}
	}
}

// step3 deals with -ic-, -full, -ness and similar.
func (s *Stemmer) step3() {
	switch s.b[s.k] {
	case 'e':
		if s.ends("icate") {
			s.r("ic")
		} else if s.ends("ative") {
			s.r("")
		} else if s.ends("alize") {
			s.r("al")
		}
	case 'i':
		if s.ends("iciti") {
			s.r("ic")
		}
	case 'l':
		if s.ends("ical") {
			s.r("ic")
		} else if s.ends("ful") {
			s.r("")
		}
	case 's':
		if s.ends("ness") {
			s.r("")
		}
	}
}

// step4 takes off -ant, -ence and the rest when the remaining stem is long
// enough (measure greater than one).
func (s *Stemmer) step4() {
	if s.k < 1 {
		return
	}
	switch s.b[s.k-1] {
	case 'a':
		if !s.ends("al") {
			return
		}
	case 'c':
		if !s.ends("ance") && !s.ends("ence") {
			return
		}
	case 'e':
		if !s.ends("er") {
			return
		}
	case 'i':
		if !s.ends("ic") {
			return
		}
	case 'l':
		if !s.ends("able") && !s.ends("ible") {
			return
		}
	case 'n':
		if !s.ends("ant") && !s.ends("ement") && !s.ends("ment") && !s.ends("ent") {
			return
		}
	case 'o':
		if s.ends("ion") && s.j >= 0 && (s.b[s.j] == 's' || s.b[s.j] == 't') {
			// -sion / -tion
		} else if !s.ends("ou") {
			return
		}
	case 's':
		if !s.ends("ism") {
			return
		}
	case 't':
		if !s.ends("ate") && !s.ends("iti") {
			return
		}
	case 'u':
		if !s.ends("ous") {
			return
		}
	case 'v':
		if !s.ends("ive") {
			return
		}
	case 'z':
		if !s.ends("ize") {
			return
		}
	default:
		return
	}
	if s.m() > 1 {
		s.k = s.j
	}
}

// step5 removes a final -e in long stems (probat(e), rat(e) kept via cvc)
// and reduces a final double l.
func (s *Stemmer) step5() {
	s.j = s.k
	if s.b[s.k] == 'e' {
		a := s.m()
		if a > 1 || a == 1 && !s.cvc(s.k-1) {
			s.k--
		}
	}
	if s.b[s.k] == 'l' && s.doublec(s.k) && s.m() > 1 {
		s.k--
	}
}
