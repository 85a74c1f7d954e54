package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage creates one DALL-E 3 image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	payload := imageGenerationRequest{
		Model:   "dall-e-3",
		Prompt:  prompt,
		Size:    "1024x1024",
		Quality: "standard",
		N:       1,
	}

	body, err := c.doJSONRequest(ctx, "/images/generations", payload)
	if err != nil {
		return "", err
	}

	var resp imageGenerationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse image generation response: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", errors.New("image generation returned no data")
	}
	return resp.Data[0].URL, nil
}
