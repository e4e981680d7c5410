// Package docs registers the OpenAPI description served at /swagger/.
//
// Regenerate with: swag init -g cmd/krishisahay/main.go --parseInternal
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/ask": {
            "post": {
                "description": "Runs one exchange: the question is answered by the language model in the requested\nlanguage, appended to the shared history and synthesized to speech. The audio is\nreturned inline as base64. If synthesis fails after the answer exists, the result is\nreturned with status 500 and its error field set.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ask"],
                "summary": "Ask a farming question",
                "parameters": [
                    {
                        "description": "Question and language (code or label)",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/message.AskRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Answer with synthesized audio",
                        "schema": {"$ref": "#/definitions/message.AskResult"}
                    },
                    "400": {
                        "description": "Invalid body, empty question or text that is not UTF-8",
                        "schema": {"type": "string"}
                    },
                    "500": {
                        "description": "Processing error",
                        "schema": {"$ref": "#/definitions/message.AskResult"}
                    }
                }
            }
        },
        "/api/history": {
            "get": {
                "description": "Returns every stored question/answer pair, most recent first.",
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "List past exchanges",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/message.Exchange"}
                        }
                    },
                    "500": {
                        "description": "History store error",
                        "schema": {"type": "string"}
                    }
                }
            }
        },
        "/api/transcribe": {
            "post": {
                "description": "Accepts raw audio bytes; the Content-Type selects the file extension handed to the\nspeech-to-text backend.",
                "consumes": ["audio/wav", "audio/mpeg"],
                "produces": ["application/json"],
                "tags": ["ask"],
                "summary": "Transcribe a recorded question",
                "responses": {
                    "200": {
                        "description": "Recognized text",
                        "schema": {"$ref": "#/definitions/http.TranscribeResponse"}
                    },
                    "400": {
                        "description": "Empty or unreadable body",
                        "schema": {"type": "string"}
                    },
                    "500": {
                        "description": "Transcription error",
                        "schema": {"type": "string"}
                    }
                }
            }
        }
    },
    "definitions": {
        "http.TranscribeResponse": {
            "type": "object",
            "properties": {
                "text": {"type": "string"}
            }
        },
        "message.AskRequest": {
            "type": "object",
            "properties": {
                "language": {
                    "description": "Language is a code (\"en\") or label (\"English\"). Defaults to English.",
                    "type": "string"
                },
                "text": {
                    "description": "Text is the question. Required.",
                    "type": "string"
                }
            }
        },
        "message.AskResult": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "audio": {"type": "string"},
                "audio_content_type": {"type": "string"},
                "audio_path": {"type": "string"},
                "error": {"type": "string"},
                "language": {"type": "string"},
                "language_code": {"type": "string"},
                "question": {"type": "string"}
            }
        },
        "message.Exchange": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "language": {"type": "string"},
                "question": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "KrishiSahay API",
	Description:      "Multilingual agricultural question answering: text or speech in, text and speech out.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
