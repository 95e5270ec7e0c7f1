package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// YouTube transcript fetching.
// Primary:  scrape watch page ytInitialPlayerResponse → caption XML (works from any IP)
// Fallback: engagement panel /next → /get_transcript (works from datacenter IPs)
// Fallback: ANDROID Innertube /player → captionTracks (works from non-blocked IPs)

var (
	errNoCaptions   = errors.New("video has no captions")
	errEmptyCaption = errors.New("caption track is empty")
)

// YouTubeOptions configures a YouTube fetcher.
type YouTubeOptions struct {
	HTTPClient    *http.Client
	BrowserClient *engine.BrowserClient // optional, used for the watch page only
	BaseURL       string                // default https://www.youtube.com
	Langs         []string              // preferred caption languages, default ["en"]
}

// YouTube fetches video transcripts from youtube.com.
type YouTube struct {
	hc      *http.Client
	bc      *engine.BrowserClient
	baseURL string
	langs   []string
}

// NewYouTube returns a fetcher with defaults filled in.
func NewYouTube(opts YouTubeOptions) *YouTube {
	y := &YouTube{
		hc:      opts.HTTPClient,
		bc:      opts.BrowserClient,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		langs:   opts.Langs,
	}
	if y.hc == nil {
		y.hc = engine.NewHTTPClient(0)
	}
	if y.baseURL == "" {
		y.baseURL = ytDefaultBase
	}
	if len(y.langs) == 0 {
		y.langs = []string{"en"}
	}
	return y
}

func (y *YouTube) hl() string { return y.langs[0] }

// Fetch returns the transcript text for a video URL or id.
// Every failure is a *engine.FetchError.
func (y *YouTube) Fetch(ctx context.Context, ref string) (string, error) {
	videoID, err := ParseVideoID(ref)
	if err != nil {
		return "", engine.NewFetchError(ref, err)
	}
	engine.IncrTranscriptRequests()

	var text string
	err = engine.TrackOperation(ctx, "youtube_transcript", func(ctx context.Context) error {
		var ferr error
		text, ferr = y.fetchByID(ctx, videoID)
		return ferr
	})
	if err != nil {
		engine.IncrTranscriptErrors()
		return "", engine.NewFetchError(ref, err)
	}
	return text, nil
}

func (y *YouTube) fetchByID(ctx context.Context, videoID string) (string, error) {
	var errs []error

	text, err := y.fetchViaPageScrape(ctx, videoID)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	errs = append(errs, fmt.Errorf("page scrape: %w", err))
	slog.Warn("youtube: page scrape failed, trying engagement panel",
		slog.String("id", videoID), slog.Any("error", err))

	text, err = y.fetchViaEngagementPanel(ctx, videoID)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	errs = append(errs, fmt.Errorf("engagement panel: %w", err))
	slog.Warn("youtube: engagement panel failed, trying player",
		slog.String("id", videoID), slog.Any("error", err))

	text, err = y.fetchViaPlayer(ctx, videoID)
	if err == nil {
		return text, nil
	}
	errs = append(errs, fmt.Errorf("android player: %w", err))
	return "", errors.Join(errs...)
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// playerResponseFromPage finds ytInitialPlayerResponse inside the watch page scripts.
func playerResponseFromPage(page []byte) (playerResponse, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return playerResponse{}, fmt.Errorf("parse watch page: %w", err)
	}

	var raw []byte
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		body := s.Text()
		idx := strings.Index(body, ytInitialPlayerResponseMarker)
		if idx < 0 {
			return true
		}
		raw = extractJSON([]byte(body[idx+len(ytInitialPlayerResponseMarker):]))
		return raw == nil
	})
	if raw == nil {
		return playerResponse{}, errors.New("ytInitialPlayerResponse not found in watch page")
	}

	var resp playerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return playerResponse{}, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return resp, nil
}

// fetchViaPageScrape scrapes the watch page and follows the best caption track.
func (y *YouTube) fetchViaPageScrape(ctx context.Context, videoID string) (string, error) {
	page, err := engine.FetchPage(ctx, y.hc, y.bc, y.baseURL+"/watch?v="+videoID)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}
	resp, err := playerResponseFromPage(page)
	if err != nil {
		return "", err
	}
	tracks, err := resp.tracks()
	if err != nil {
		return "", err
	}
	track, ok := pickBestTrack(tracks, y.langs)
	if !ok {
		return "", errors.New("all caption tracks require PoToken")
	}
	return y.fetchTimedText(ctx, track.BaseURL)
}

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// parseTranscriptSegments extracts plain text from a /get_transcript JSON response.
func parseTranscriptSegments(resp ytGetTranscriptResp) string {
	var parts []string
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			if seg.TranscriptSegmentRenderer == nil {
				continue
			}
			for _, run := range seg.TranscriptSegmentRenderer.Snippet.Runs {
				if text := engine.CaptionText(run.Text); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

// fetchViaEngagementPanel fetches a transcript via:
//  1. POST /next → engagementPanels containing the transcript continuation token
//  2. POST /get_transcript with the token → JSON segments
func (y *YouTube) fetchViaEngagementPanel(ctx context.Context, videoID string) (string, error) {
	visitorData := generateVisitorData()

	nextData, err := y.postInnerTubeWEB(ctx, ytNextPath, map[string]any{
		"videoId": videoID,
		"context": y.webContext(visitorData),
	}, visitorData)
	if err != nil {
		return "", fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}

	transcriptData, err := y.postInnerTubeWEB(ctx, ytTranscriptPath, map[string]any{
		"params":  token,
		"context": map[string]any{"client": y.webClient(visitorData)},
	}, visitorData)
	if err != nil {
		return "", fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}

	text := parseTranscriptSegments(transcriptResp)
	if text == "" {
		return "", errEmptyCaption
	}
	return text, nil
}

// fetchViaPlayer uses the ANDROID Innertube /player endpoint.
func (y *YouTube) fetchViaPlayer(ctx context.Context, videoID string) (string, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                y.hl(),
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return "", err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.baseURL+ytPlayerPath+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return y.hc.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("android innertube: HTTP %d", resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 3*1024*1024)).Decode(&player); err != nil {
		return "", fmt.Errorf("decode player: %w", err)
	}
	tracks, err := player.tracks()
	if err != nil {
		return "", err
	}
	track, ok := pickBestTrack(tracks, y.langs)
	if !ok {
		return "", errors.New("all caption tracks require PoToken")
	}
	return y.fetchTimedText(ctx, track.BaseURL)
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken; those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL.
func (y *YouTube) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return y.hc.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch timedtext: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", err
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) (string, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	parts := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		if text := engine.CaptionText(line.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", errEmptyCaption
	}
	return strings.Join(parts, " "), nil
}
