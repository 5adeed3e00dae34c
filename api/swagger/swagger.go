package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Console API",
        "description": "Console for generating, converting, uploading and reporting student records.",
        "version": "1.0.0"
    },
    "basePath": "/api/console",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Console", "description": "Console snapshot and student statistics"},
        {"name": "Tasks", "description": "Generate, process, upload and clear"},
        {"name": "Report", "description": "Paginated student report and exports"}
    ],
    "paths": {
        "/state": {
            "get": {
                "tags": ["Console"],
                "summary": "Full console snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/init": {
            "post": {
                "tags": ["Console"],
                "summary": "Reload count, classes and the current report page",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generate": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Generate student records into an Excel file",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid record count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/process": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Convert an Excel workbook to CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No or wrong file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/upload": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Load a CSV file into the database",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No or wrong file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "delete": {
                "tags": ["Tasks"],
                "summary": "Delete every persisted student",
                "parameters": [
                    {"name": "confirm", "in": "query", "type": "boolean", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "428": {"description": "Confirmation required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/count": {
            "get": {
                "tags": ["Console"],
                "summary": "Refresh and return the persisted student count",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report": {
            "get": {
                "tags": ["Report"],
                "summary": "Current report page",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/search": {
            "post": {
                "tags": ["Report"],
                "summary": "Filter the report and reload page 0",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/clear-filters": {
            "post": {
                "tags": ["Report"],
                "summary": "Drop the report filter and reload page 0",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/pages/{page}": {
            "post": {
                "tags": ["Report"],
                "summary": "Show a specific report page",
                "parameters": [
                    {"name": "page", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK; meta.accepted is false for out of range pages", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/next": {
            "post": {
                "tags": ["Report"],
                "summary": "Show the next report page",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/previous": {
            "post": {
                "tags": ["Report"],
                "summary": "Show the previous report page",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/classes": {
            "get": {
                "tags": ["Report"],
                "summary": "Refresh and return the distinct student classes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report/export/{format}": {
            "post": {
                "tags": ["Report"],
                "summary": "Export the filtered report and stage it for a single download",
                "parameters": [
                    {"name": "format", "in": "path", "type": "string", "enum": ["excel", "csv", "pdf"], "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Report"],
                "summary": "Fetch a staged export",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Unknown, used or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["Console"],
                "summary": "Websocket stream of state_changed notifications",
                "responses": {
                    "101": {"description": "Switching protocols"}
                }
            }
        }
    },
    "definitions": {
        "GenerateRequest": {
            "type": "object",
            "properties": {
                "recordCount": {"type": "integer", "minimum": 1}
            }
        },
        "SearchRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "integer", "minimum": 1},
                "studentClass": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_elements": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
