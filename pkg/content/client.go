// client.go — HTTP client for the Quran text and commentary APIs.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Default API endpoints.
const (
	DefaultQuranBase      = "https://api.quran.com/api/v4"
	DefaultCommentaryBase = "https://api.alquran.cloud/v1"
)

var verseKeyRe = regexp.MustCompile(`^\d{1,3}:\d{1,3}$`)

// Client talks to the chapter/verse API and the commentary API.
type Client struct {
	quranBase      string
	commentaryBase string
	http           *http.Client
	strip          *bluemonday.Policy
}

// NewClient creates a client. Empty bases select the public APIs; a zero
// timeout means 12 seconds.
func NewClient(quranBase, commentaryBase string, timeout time.Duration) *Client {
	if quranBase == "" {
		quranBase = DefaultQuranBase
	}
	if commentaryBase == "" {
		commentaryBase = DefaultCommentaryBase
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		quranBase:      strings.TrimRight(quranBase, "/"),
		commentaryBase: strings.TrimRight(commentaryBase, "/"),
		http:           &http.Client{Timeout: timeout},
		strip:          bluemonday.StrictPolicy(),
	}
}

// Chapters lists all surahs.
func (c *Client) Chapters(ctx context.Context) ([]Chapter, error) {
	var body struct {
		Chapters []Chapter `json:"chapters"`
	}
	if err := c.getJSON(ctx, "chapters", c.quranBase+"/chapters", &body); err != nil {
		return nil, err
	}
	return body.Chapters, nil
}

// Verses lists the verses of one chapter in Uthmani script.
func (c *Client) Verses(ctx context.Context, chapter int) ([]Verse, error) {
	if chapter < 1 || chapter > 114 {
		return nil, fmt.Errorf("chapter %d out of range 1-114", chapter)
	}
	u := c.quranBase + "/quran/verses/uthmani?chapter_number=" + strconv.Itoa(chapter)
	var body struct {
		Verses []Verse `json:"verses"`
	}
	if err := c.getJSON(ctx, "verses", u, &body); err != nil {
		return nil, err
	}
	return body.Verses, nil
}

// Editions returns the curated edition list. The remote list mixes in
// editions the commentary endpoint cannot serve, so it is not consulted.
func (c *Client) Editions(context.Context) ([]Edition, error) {
	out := make([]Edition, len(Editions))
	copy(out, Editions)
	return out, nil
}

// Commentary fetches the text of one verse in an edition, with any markup
// removed.
func (c *Client) Commentary(ctx context.Context, verseKey, edition string) (string, error) {
	if !verseKeyRe.MatchString(verseKey) {
		return "", fmt.Errorf("invalid verse key %q", verseKey)
	}
	if edition == "" {
		edition = DefaultEdition
	}
	u := c.commentaryBase + "/ayah/" + verseKey + "/" + url.PathEscape(edition)
	var body struct {
		Data struct {
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "commentary", u, &body); err != nil {
		return "", err
	}
	text := strings.TrimSpace(html.UnescapeString(c.strip.Sanitize(body.Data.Text)))
	if text == "" {
		return "", &FetchError{Op: "commentary", URL: u, Err: fmt.Errorf("empty text")}
	}
	return text, nil
}

func (c *Client) getJSON(ctx context.Context, op, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &FetchError{Op: op, URL: u, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(out); err != nil {
		return &FetchError{Op: op, URL: u, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
