// Package prompt constructs the chat prompts sent to the recommendation
// backends: an instruction block per operation, a digest of the channel
// statistics, and the previous-conversation context from the session store.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tubelens/tubelens/internal/csvdata"
	"github.com/tubelens/tubelens/providers"
)

// maxDigestVideos bounds how many rows make it into a prompt, keeping token
// usage predictable for large channels.
const maxDigestVideos = 25

const seoSystem = `You are a YouTube SEO assistant. Given channel statistics,
recommend improved titles, descriptions, tags, and thumbnail text. Be
specific and ground every recommendation in the provided data.`

const keywordsSystem = `You are a YouTube keyword analyst. Given channel
statistics, identify the keywords and topics that drive views for this
channel and suggest trending keywords worth targeting next.`

const gapSystem = `You are a YouTube competitor analyst. Compare the
channel's statistics with the competitor's and identify content gaps:
topics, formats, and keywords the competitor covers that the channel does
not.`

// SEO builds the recommendation prompt for the channel's own statistics.
func SEO(videos []csvdata.Video, question, history string) []providers.Message {
	return build(seoSystem, digest("Channel statistics", videos), question, history)
}

// Keywords builds the keyword-trend prompt.
func Keywords(videos []csvdata.Video, question, history string) []providers.Message {
	return build(keywordsSystem, digest("Channel statistics", videos), question, history)
}

// Gap builds the competitor-gap prompt from both channels' statistics.
func Gap(own, competitor []csvdata.Video, question, history string) []providers.Message {
	data := digest("Channel statistics", own) + "\n" + digest("Competitor statistics", competitor)
	return build(gapSystem, data, question, history)
}

func build(system, data, question, history string) []providers.Message {
	var user strings.Builder
	if history != "" {
		user.WriteString("Previous conversation:\n")
		user.WriteString(history)
		user.WriteString("\n")
	}
	user.WriteString(data)
	user.WriteString("\nQuestion: ")
	user.WriteString(question)

	return []providers.Message{
		{Role: providers.RoleSystem, Content: system},
		{Role: providers.RoleUser, Content: user.String()},
	}
}

// digest renders the top videos by views as a compact table-like block.
func digest(title string, videos []csvdata.Video) string {
	sorted := make([]csvdata.Video, len(videos))
	copy(sorted, videos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Views > sorted[j].Views })
	if len(sorted) > maxDigestVideos {
		sorted = sorted[:maxDigestVideos]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d videos, top %d by views):\n", title, len(videos), len(sorted))
	for _, v := range sorted {
		fmt.Fprintf(&b, "- %q | views=%d likes=%d comments=%d published=%s tags=%s\n",
			v.Title, v.Views, v.Likes, v.Comments,
			v.PublishedAt.Format("2006-01-02"), strings.Join(v.Tags, ","))
	}
	return b.String()
}
