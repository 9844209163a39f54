package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	playerResponseMarker = "ytInitialPlayerResponse"
	consentFormAction    = "https://consent.youtube.com/s"
	maxBodySize          = 10 << 20
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

type Client struct {
	HTTPClient     *http.Client
	BaseURL        string
	Languages      []string
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewClient(languages []string) *Client {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &Client{
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		BaseURL:        DefaultBaseURL,
		Languages:      languages,
		MaxRetries:     3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer *struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (t captionTrack) generated() bool {
	return t.Kind == "asr"
}

type timedText struct {
	Texts []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Body     string  `xml:",innerxml"`
	} `xml:"text"`
}

// Fetch downloads the caption track of videoID in the first configured
// language that has one. Manual tracks win over generated ones.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]Entry, error) {
	logger := logrus.WithField("video_id", videoID)

	if videoID == "" {
		return nil, &FetchError{VideoID: videoID, Err: errors.New("empty video ID")}
	}

	watchURL := c.baseURL() + "/watch?v=" + url.QueryEscape(videoID)
	page, err := c.get(ctx, watchURL, nil)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: errors.Wrap(err, "fetching watch page")}
	}

	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: errors.Wrap(err, "parsing watch page")}
	}

	if v, ok := consentValue(doc); ok {
		logger.Debug("Accepting cookie consent")
		cookie := &http.Cookie{Name: "CONSENT", Value: "YES+" + v}
		page, err = c.get(ctx, watchURL, cookie)
		if err != nil {
			return nil, &FetchError{VideoID: videoID, Err: errors.Wrap(err, "fetching watch page after consent")}
		}
		if doc, err = html.Parse(strings.NewReader(string(page))); err != nil {
			return nil, &FetchError{VideoID: videoID, Err: errors.Wrap(err, "parsing watch page")}
		}
	}

	player, err := findPlayerResponse(doc)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: err}
	}

	if status := player.PlayabilityStatus.Status; status != "" && status != "OK" {
		reason := player.PlayabilityStatus.Reason
		if reason == "" {
			reason = strings.ToLower(status)
		}
		return nil, &FetchError{VideoID: videoID, Err: errors.Errorf("video is not playable: %s", reason)}
	}

	if player.Captions == nil || player.Captions.Renderer == nil || len(player.Captions.Renderer.CaptionTracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	track, ok := selectTrack(player.Captions.Renderer.CaptionTracks, c.Languages)
	if !ok {
		return nil, errors.Wrapf(ErrNoTranscript, "requested %v, available %v",
			c.Languages, languageCodes(player.Captions.Renderer.CaptionTracks))
	}

	logger.WithFields(logrus.Fields{
		"language":  track.LanguageCode,
		"generated": track.generated(),
	}).Info("Fetching caption track")

	trackURL, err := captionURL(track.BaseURL)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: err}
	}

	body, err := c.get(ctx, trackURL, nil)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: errors.Wrap(err, "fetching caption track")}
	}

	entries, err := parseTimedText(body)
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: err}
	}

	logger.WithField("entries", len(entries)).Info("Transcript fetched")
	return entries, nil
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

func (c *Client) get(ctx context.Context, target string, cookie *http.Cookie) ([]byte, error) {
	maxRetries := c.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var (
		body []byte
		err  error
	)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		body, err = c.getOnce(ctx, target, cookie)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt == maxRetries {
			break
		}

		logrus.WithFields(logrus.Fields{
			"attempt":    attempt,
			"maxRetries": maxRetries,
			"url":        target,
			"error":      err,
		}).Warn("Transcript request failed, retrying")

		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, err
}

func (c *Client) backoff(attempt int) time.Duration {
	const backoffFactor = 2.0

	backoff := time.Duration(float64(c.InitialBackoff) * math.Pow(backoffFactor, float64(attempt-1)))
	if c.MaxBackoff > 0 && backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	if half := int64(backoff / 2); half > 0 {
		backoff += time.Duration(rand.Int63n(half))
	}
	return backoff
}

func (c *Client) getOnce(ctx context.Context, target string, cookie *http.Cookie) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept-Language", "en-US")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	return body, nil
}

// consentValue returns the value of the hidden "v" input of the cookie
// consent form, if the page is one.
func consentValue(doc *html.Node) (string, bool) {
	var (
		value string
		found bool
	)

	var walk func(n *html.Node, inForm bool)
	walk = func(n *html.Node, inForm bool) {
		if found {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "form":
				inForm = getAttr(n, "action") == consentFormAction
			case "input":
				if inForm && getAttr(n, "name") == "v" {
					value, found = getAttr(n, "value"), true
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child, inForm)
		}
	}
	walk(doc, false)

	return value, found && value != ""
}

func findPlayerResponse(doc *html.Node) (*playerResponse, error) {
	var script string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if script != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			if text := textContent(n); strings.Contains(text, playerResponseMarker) {
				script = text
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if script == "" {
		return nil, errors.New("player response not found in watch page")
	}

	idx := strings.Index(script, playerResponseMarker)
	start := strings.Index(script[idx:], "{")
	if start < 0 {
		return nil, errors.New("player response has no JSON body")
	}

	var player playerResponse
	if err := json.NewDecoder(strings.NewReader(script[idx+start:])).Decode(&player); err != nil {
		return nil, errors.Wrap(err, "decoding player response")
	}
	return &player, nil
}

func selectTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		for _, generated := range []bool{false, true} {
			for _, track := range tracks {
				if track.LanguageCode == lang && track.generated() == generated {
					return track, true
				}
			}
		}
	}
	return captionTrack{}, false
}

func languageCodes(tracks []captionTrack) []string {
	codes := make([]string, 0, len(tracks))
	for _, track := range tracks {
		codes = append(codes, track.LanguageCode)
	}
	return codes
}

// captionURL drops the fmt parameter so the server answers with the plain
// timedtext XML format.
func captionURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "parsing caption track URL")
	}
	q := u.Query()
	q.Del("fmt")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseTimedText(body []byte) ([]Entry, error) {
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding caption track")
	}

	entries := make([]Entry, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := cleanCaption(t.Body)
		// Empty texts would match any alignment window.
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Text: text, Start: t.Start, Duration: t.Duration})
	}
	return entries, nil
}

// cleanCaption unescapes entities (the track is often escaped twice),
// strips formatting tags and collapses whitespace, newlines included, so
// the joined text lines up with the normalized transcript.
func cleanCaption(raw string) string {
	text := html.UnescapeString(html.UnescapeString(raw))
	text = tagRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}
