package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// Prompt is one extraction request. Text carries statement text for the
// raw-text strategy; Pages carries single-page PDFs for the vision strategy.
type Prompt struct {
	Text  string
	Pages models.PdfPages
}

// Oracle turns a statement into the JSON document described by TablesSchema.
type Oracle interface {
	Extract(ctx context.Context, prompt Prompt) (string, error)
}

// OpenAIOracle calls the OpenAI Responses API with a strict JSON schema.
type OpenAIOracle struct {
	client openai.Client
	model  string
	log    logger.Logger
}

func NewOpenAIOracle(apiKey, model string, log logger.Logger) *OpenAIOracle {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIOracle{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
	}
}

func (o *OpenAIOracle) Extract(ctx context.Context, prompt Prompt) (string, error) {
	if prompt.Text == "" && len(prompt.Pages) == 0 {
		return "", errors.New("empty prompt")
	}

	content := responses.ResponseInputMessageContentListParam{}
	for i, page := range prompt.Pages {
		encoded := base64.StdEncoding.EncodeToString(page)
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputFile: &responses.ResponseInputFileParam{
				FileData: openai.String("data:application/pdf;base64," + encoded),
				Filename: openai.String(fmt.Sprintf("page-%d.pdf", i+1)),
			},
		})
	}
	if prompt.Text != "" {
		content = append(content, responses.ResponseInputContentParamOfInputText(TextInstructions(prompt.Text)))
	} else {
		content = append(content, responses.ResponseInputContentParamOfInputText(VisionInstructions()))
	}

	estimated := estimatedTokensPerPage*len(prompt.Pages) + len(prompt.Text)/2
	o.log.Debug("Calling OpenAI model %s (pages=%d, text=%d bytes)", o.model, len(prompt.Pages), len(prompt.Text))

	return RateLimitedCall(ctx, estimated, o.log, func(ctx context.Context) (string, error) {
		response, err := o.client.Responses.New(ctx, responses.ResponseNewParams{
			Model: o.model,
			Input: responses.ResponseNewParamsInputUnion{
				OfInputItemList: responses.ResponseInputParam{
					responses.ResponseInputItemParamOfMessage(content, "user"),
				},
			},
			Text: responses.ResponseTextConfigParam{
				Format: responses.ResponseFormatTextConfigParamOfJSONSchema("pension_tables", TablesSchema),
			},
		})
		if err != nil {
			return "", err
		}
		return response.OutputText(), nil
	})
}
