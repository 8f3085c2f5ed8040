package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var (
	CharacterListSchema   = generateSchema[CharacterList]()
	LocationListSchema    = generateSchema[LocationList]()
	PointOfViewSchema     = generateSchema[PointOfView]()
	ChapterMetadataSchema = generateSchema[ChapterMetadata]()
)

func responseFormat(name, description string, schema any) openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}

func CharacterListResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("character_list", "Named characters extracted from a chapter", CharacterListSchema)
}

func LocationListResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("location_list", "Named locations extracted from a chapter", LocationListSchema)
}

func PointOfViewResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("point_of_view", "Narrative point of view of a chapter", PointOfViewSchema)
}

func ChapterMetadataResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	return responseFormat("chapter_metadata", "Sentiment, tone, and complexity analysis of a chapter", ChapterMetadataSchema)
}
