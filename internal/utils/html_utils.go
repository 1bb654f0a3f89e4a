package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// decorateHTML 给渲染后的图片加懒加载，外链加 nofollow
func decorateHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("loading", "lazy")
		s.SetAttr("referrerpolicy", "no-referrer")
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return
		}
		rel := strings.Fields(s.AttrOr("rel", ""))
		for _, want := range []string{"nofollow", "noopener"} {
			if !contains(rel, want) {
				rel = append(rel, want)
			}
		}
		s.SetAttr("rel", strings.Join(rel, " "))
	})

	// goquery wraps fragments in html/body, only the body content is wanted
	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(out)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
