package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	commonhttp "survey-forms/internal/common/http"
)

// OutletClient calls the outlet master data service.
type OutletClient struct {
	http    *commonhttp.Client
	baseURL string
}

func NewOutletClient(client *commonhttp.Client, baseURL string) *OutletClient {
	return &OutletClient{http: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type outletResponse struct {
	Payload map[string]interface{} `json:"payload"`
}

// FindOutletByID fetches GET <base>/outlets/{id}. A response without a
// payload yields a nil map.
func (c *OutletClient) FindOutletByID(ctx context.Context, outletID int) (map[string]interface{}, error) {
	var resp outletResponse
	endpoint := c.baseURL + "/outlets/" + url.PathEscape(strconv.Itoa(outletID))
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("find outlet %d: %w", outletID, err)
	}
	return resp.Payload, nil
}

// Saver persists a finished payload.
type Saver interface {
	SaveSurveyData(ctx context.Context, payload *Payload) error
}

// SaveClient posts payloads to the survey service.
type SaveClient struct {
	http     *commonhttp.Client
	endpoint string
}

func NewSaveClient(client *commonhttp.Client, baseURL, savePath string) *SaveClient {
	if savePath == "" {
		savePath = "/survey/save"
	}
	return &SaveClient{
		http:     client,
		endpoint: strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(savePath, "/"),
	}
}

type saveResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// SaveSurveyData posts the payload.
func (c *SaveClient) SaveSurveyData(ctx context.Context, payload *Payload) error {
	data, err := c.http.Post(ctx, c.endpoint, payload)
	if err != nil {
		return err
	}

	// the body is opaque; only an explicit JSON "success": false fails the save
	var resp saveResponse
	if json.Unmarshal(data, &resp) == nil && resp.Success != nil && !*resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "survey service rejected the submission"
		}
		return errors.New(msg)
	}
	return nil
}
