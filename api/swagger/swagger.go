package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Routinez API",
        "description": "Class routine synthesis service: conflict-free schedule generation from the live section catalog.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Routine", "description": "Routine synthesis and conflict checking"},
        {"name": "Catalog", "description": "Course, faculty and exam schedule listings"},
        {"name": "Export", "description": "PDF/CSV routine downloads"}
    ],
    "paths": {
        "/routine": {
            "post": {
                "tags": ["Routine"],
                "summary": "Synthesize a class routine",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRoutineRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "No conflict-free combination", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Empty candidate pool", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/check-conflicts": {
            "post": {
                "tags": ["Routine"],
                "summary": "Check an explicit section set for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/routine/feedback": {
            "post": {
                "tags": ["Routine"],
                "summary": "AI commentary on a routine",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RoutineFeedbackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "AI feedback disabled or upstream unavailable"}
                }
            }
        },
        "/routine/export": {
            "post": {
                "tags": ["Export"],
                "summary": "Export a routine as PDF or CSV",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRoutineRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/routine/export/{token}": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a previously exported routine",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "403": {"description": "Invalid or expired download link"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List offered courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{code}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get one course with its sections",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "showAll", "in": "query", "type": "boolean", "description": "Include sections without open seats"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not offered"}
                }
            }
        },
        "/faculty": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List instructors and their courses",
                "parameters": [
                    {"name": "courses", "in": "query", "type": "string", "description": "Comma separated course codes"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-schedule": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List published exam windows",
                "parameters": [
                    {"name": "courses", "in": "query", "type": "string", "description": "Comma separated course codes"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/status": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Service and snapshot status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CourseSelection": {
            "type": "object",
            "properties": {
                "course": {"type": "string"},
                "faculty": {"type": "string"},
                "section": {"type": "string"},
                "locked": {"type": "boolean"}
            },
            "required": ["course"]
        },
        "TimeWindow": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"}
            }
        },
        "GenerateRoutineRequest": {
            "type": "object",
            "properties": {
                "courses": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CourseSelection"}
                },
                "days": {"type": "array", "items": {"type": "string"}},
                "times": {"type": "array", "items": {"$ref": "#/definitions/TimeWindow"}},
                "commutePreference": {"type": "string", "enum": ["minimize-days", "maximize-days", "balanced"]},
                "timingPreference": {"type": "string", "enum": ["early", "late", "balanced"]},
                "optimizeFaculty": {"type": "boolean"},
                "useAi": {"type": "boolean"}
            },
            "required": ["courses"]
        },
        "CheckConflictsRequest": {
            "type": "object",
            "properties": {
                "sectionIds": {"type": "array", "items": {"type": "string"}},
                "sections": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CourseSelection"}
                }
            }
        },
        "RoutineFeedbackRequest": {
            "type": "object",
            "properties": {
                "routine": {"$ref": "#/definitions/Routine"}
            },
            "required": ["routine"]
        },
        "ExportRoutineRequest": {
            "type": "object",
            "properties": {
                "routine": {"$ref": "#/definitions/Routine"},
                "format": {"type": "string", "enum": ["pdf", "csv"]}
            },
            "required": ["routine"]
        },
        "Routine": {
            "type": "object",
            "properties": {
                "sections": {"type": "array", "items": {"type": "object"}},
                "campusDays": {"type": "integer"},
                "daysList": {"type": "array", "items": {"type": "string"}},
                "score": {"type": "number"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "suggestion": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
