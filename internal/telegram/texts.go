package telegram

import (
	"fmt"
	"strings"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
)

// UI texts in English
const (
	startText = "🌅 I count down to the morning stages before sunrise.\n\n" +
		"/status — countdown and today's times\n" +
		"/sunrise HH:MM — set sunrise manually\n" +
		"/stages — stage offsets\n" +
		"/offset <stage> <-MM:SS> — change an offset\n" +
		"/reset — restore default stages\n" +
		"/refresh — look sunrise up again"
	manualInEffectText = "Sunrise was entered manually and stays in effect for today. " +
		"Send a new time to change it."
	offsetUsage = "Usage: /offset <stage> <[-]MM[:SS]>, e.g. /offset Hear -4:30"
)

func reachedText(st domain.DerivedStage) string {
	return "🔔 " + st.Name + " — " + domain.FormatClock(st.At)
}

// statusText renders the same view the terminal shows.
func statusText(v domain.View) string {
	var b strings.Builder
	if !v.HasSunrise {
		if v.Err != "" {
			b.WriteString("⚠️ " + v.Err + "\n\n")
		}
		b.WriteString("Sunrise is not known yet. Send it as HH:MM or use /sunrise HH:MM.")
		return b.String()
	}

	if v.Next != nil {
		fmt.Fprintf(&b, "⏳ %s until %s\n\n", domain.FormatCountdown(v.Remaining), v.Next.Name)
	} else {
		b.WriteString("✅ Done for today\n\n")
	}
	fmt.Fprintf(&b, "☀️ Sunrise %s\n", domain.FormatClock(v.Sunrise))
	for i, s := range v.Stages {
		mark := "•"
		if i == v.NextIndex {
			mark = "➡️"
		}
		fmt.Fprintf(&b, "%s %s %s\n", mark, s.Name, domain.FormatClock(s.At))
	}
	if v.Err != "" {
		b.WriteString("\n⚠️ " + v.Err + "\n")
	}
	return b.String()
}

func stagesText(stages []domain.StageDefinition) string {
	var b strings.Builder
	b.WriteString("Offsets from sunrise:\n")
	for _, s := range stages {
		fmt.Fprintf(&b, "• %s %s\n", s.Name, domain.FormatOffset(s))
	}
	return b.String()
}
