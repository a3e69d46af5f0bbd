package app

import (
	"regexp"
	"strings"

	sastrawi "github.com/RadhiFadlillah/go-sastrawi"
)

// Cleaning mirrors what the sentiment model saw at training time: strip
// URLs, collapse repeated terminal punctuation, drop non-alphanumerics,
// lowercase, remove Indonesian stopwords, stem the rest.

var (
	urlRe      = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	punctRe    = regexp.MustCompile(`[!?.]{2,}`)
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

type wordStemmer interface {
	Stem(word string) string
}

type TextCleaner struct {
	stemmer wordStemmer
}

func NewTextCleaner() *TextCleaner {
	return &TextCleaner{stemmer: sastrawi.NewStemmer(sastrawi.DefaultDictionary())}
}

func (c *TextCleaner) Clean(text string) string {
	if text == "" {
		return ""
	}
	text = urlRe.ReplaceAllString(text, "")
	text = punctRe.ReplaceAllString(text, ".")
	text = nonAlnumRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return ""
	}

	var kept []string
	for _, tok := range sastrawi.Tokenize(text) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		kept = append(kept, c.stemmer.Stem(tok))
	}
	return strings.Join(kept, " ")
}

// Indonesian stopwords, carried as data so cleaning needs no runtime corpus
// download. Union of the common NLTK list and dashboard-specific fillers.
var stopwords = func() map[string]struct{} {
	words := []string{
		"ada", "adalah", "agar", "akan", "aku", "anda", "antara", "apa",
		"apakah", "atas", "atau", "bagi", "bahwa", "banyak", "begitu",
		"belum", "berada", "bisa", "boleh", "buat", "dalam", "dan",
		"dapat", "dari", "dengan", "di", "dia", "dulu", "gak", "hanya",
		"harus", "hingga", "ia", "ini", "itu", "jadi", "jika", "juga",
		"kalau", "kami", "kamu", "karena", "ke", "kepada", "kita",
		"lagi", "lah", "lain", "lebih", "maka", "masih", "mau", "melalui",
		"memang", "mereka", "merupakan", "nya", "oleh", "pada", "para",
		"pernah", "pun", "saat", "saja", "sama", "sampai", "sangat",
		"saya", "sebagai", "sebuah", "sedang", "sehingga", "sekarang",
		"semua", "seperti", "serta", "sih", "suatu", "sudah", "supaya",
		"tapi", "telah", "tentang", "terhadap", "tersebut", "tetapi",
		"tidak", "untuk", "yaitu", "yang",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()
