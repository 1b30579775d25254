package deck

import (
	"regexp"
)

// ReplaceRunText finds the first text run on a slide whose content matches
// the token pattern and replaces the run's entire text, leaving the run's
// properties (font, size, color) in place. Returns false when no run
// matches; the caller decides whether that is worth a warning.
func (d *Deck) ReplaceRunText(slide int, token *regexp.Regexp, text string) (bool, error) {
	data, err := d.slideData(slide)
	if err != nil {
		return false, err
	}
	scan, err := scanSlide(data)
	if err != nil {
		return false, err
	}

	for _, run := range scan.runs {
		if !token.MatchString(run.text) {
			continue
		}
		edited, err := applySplices(data, []splice{{span: run.elem, repl: textElement(text)}})
		if err != nil {
			return false, err
		}
		d.setSlideData(slide, edited)
		return true, nil
	}
	return false, nil
}

// RunTexts returns the text of every run on a slide, in document order.
func (d *Deck) RunTexts(slide int) ([]string, error) {
	data, err := d.slideData(slide)
	if err != nil {
		return nil, err
	}
	scan, err := scanSlide(data)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(scan.runs))
	for i, run := range scan.runs {
		texts[i] = run.text
	}
	return texts, nil
}
