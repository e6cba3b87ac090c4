// Package opendart wraps the OpenDART single-account financial statement API.
package opendart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://opendart.fss.or.kr/api"

// StatementLine is one account line of the fnlttSinglAcntAll response.
type StatementLine struct {
	RceptNo         string `json:"rcept_no"`
	ReprtCode       string `json:"reprt_code"`
	BsnsYear        string `json:"bsns_year"`
	CorpCode        string `json:"corp_code"`
	SjDiv           string `json:"sj_div"`
	SjNm            string `json:"sj_nm"`
	AccountID       string `json:"account_id"`
	AccountNm       string `json:"account_nm"`
	AccountDetail   string `json:"account_detail"`
	ThstrmNm        string `json:"thstrm_nm"`
	ThstrmAmount    string `json:"thstrm_amount"`
	FrmtrmNm        string `json:"frmtrm_nm"`
	FrmtrmAmount    string `json:"frmtrm_amount"`
	BfefrmtrmNm     string `json:"bfefrmtrm_nm"`
	BfefrmtrmAmount string `json:"bfefrmtrm_amount"`
	Ord             string `json:"ord"`
	Currency        string `json:"currency"`
}

// Response is the envelope of a statement query.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	List    []StatementLine `json:"list"`
}

// OK reports whether the query returned data.
func (r *Response) OK() bool { return r.Status == StatusOK }

// Client queries OpenDART. It holds the primary API key plus optional backup
// keys used when the primary hits its daily quota.
type Client struct {
	baseURL    string
	keys       []string
	keyIndex   int
	httpClient *http.Client
}

// NewClient creates an OpenDART client. At least one API key is required;
// additional keys serve as quota failover targets.
func NewClient(keys ...string) (*Client, error) {
	if len(keys) == 0 || keys[0] == "" {
		return nil, fmt.Errorf("at least one OpenDART API key is required")
	}
	return &Client{
		baseURL: defaultBaseURL,
		keys:    keys,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// RotateKey switches to the next configured API key. It reports false when no
// unused key remains.
func (c *Client) RotateKey() bool {
	if c.keyIndex+1 >= len(c.keys) {
		return false
	}
	c.keyIndex++
	return true
}

// SingleAccountAll fetches the full account list of one filing
// (fnlttSinglAcntAll). fsDiv is CFS for consolidated or OFS for separate
// statements. Transport failures return an error; API-level failures come
// back as a Response with a non-000 status.
func (c *Client) SingleAccountAll(ctx context.Context, corpCode, bsnsYear, reprtCode, fsDiv string) (*Response, error) {
	params := url.Values{}
	params.Set("crtfc_key", c.keys[c.keyIndex])
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", bsnsYear)
	params.Set("reprt_code", reprtCode)
	params.Set("fs_div", fsDiv)

	endpoint := fmt.Sprintf("%s/fnlttSinglAcntAll.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenDART request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenDART returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse OpenDART response: %w", err)
	}
	return &out, nil
}
