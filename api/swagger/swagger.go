package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Procure MR API",
        "description": "Material request purchasing workflow API",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, tokens, and password management"},
        {"name": "Users", "description": "User administration"},
        {"name": "BusinessUnits", "description": "Business units, departments, members, and numbering series"},
        {"name": "Items", "description": "Catalog item management"},
        {"name": "MaterialRequests", "description": "Material request drafting and listing"},
        {"name": "Approvals", "description": "Workflow transitions"},
        {"name": "Dashboard", "description": "Per-business-unit summary widgets"},
        {"name": "Printouts", "description": "Asynchronous PDF/CSV generation"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens, user info, and accessible business units", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Users"],
                "summary": "Update user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Deactivate user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/business-units": {
            "get": {
                "tags": ["BusinessUnits"],
                "summary": "List business units",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["BusinessUnits"],
                "summary": "Create business unit",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/business-units/mine": {
            "get": {
                "tags": ["BusinessUnits"],
                "summary": "Business units accessible to the current user",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/business-units/{id}/departments": {
            "get": {
                "tags": ["BusinessUnits"],
                "summary": "List departments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["BusinessUnits"],
                "summary": "Create department",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/business-units/{id}/series": {
            "get": {
                "tags": ["BusinessUnits"],
                "summary": "List document numbering series",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["BusinessUnits"],
                "summary": "Create document numbering series",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/items": {
            "get": {
                "tags": ["Items"],
                "summary": "List catalog items",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Items"],
                "summary": "Create catalog item",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Code already exists"}}
            }
        },
        "/requests": {
            "get": {
                "tags": ["MaterialRequests"],
                "summary": "List material requests",
                "parameters": [
                    {"name": "X-Business-Unit", "in": "header", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma-separated status filter"},
                    {"name": "type", "in": "query", "type": "string", "enum": ["ITEM", "SERVICE"]},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "requester", "in": "query", "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["MaterialRequests"],
                "summary": "Create material request draft",
                "parameters": [
                    {"name": "X-Business-Unit", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMaterialRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["MaterialRequests"],
                "summary": "Get material request with lines",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["MaterialRequests"],
                "summary": "Update a DRAFT or FOR_EDIT request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not editable"}}
            },
            "delete": {
                "tags": ["MaterialRequests"],
                "summary": "Delete a DRAFT request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/requests/{id}/events": {
            "get": {
                "tags": ["MaterialRequests"],
                "summary": "Approval history",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/requests/{id}/submit": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Submit for recommending approval",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}, "412": {"description": "Approvers not assigned or no lines"}}
            }
        },
        "/requests/{id}/recommend": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve at the recommending stage",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the assigned approver"}}
            }
        },
        "/requests/{id}/approve": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve at the final stage",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the assigned approver"}}
            }
        },
        "/requests/{id}/disapprove": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Disapprove with a reason",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Reason required"}}
            }
        },
        "/requests/{id}/recall": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Recall for editing",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/requests/{id}/cancel": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Cancel the request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/requests/{id}/post": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Post an approved request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Poster role required"}}
            }
        },
        "/requests/{id}/complete": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Mark received or transmitted",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Business unit dashboard",
                "parameters": [{"name": "X-Business-Unit", "in": "header", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/printouts": {
            "post": {
                "tags": ["Printouts"],
                "summary": "Queue a printout job",
                "parameters": [{"name": "X-Business-Unit", "in": "header", "required": true, "type": "string"}],
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/printouts/{id}": {
            "get": {
                "tags": ["Printouts"],
                "summary": "Printout job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/printouts/download/{token}": {
            "get": {
                "tags": ["Printouts"],
                "summary": "Download a finished printout",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "produces": ["application/octet-stream"],
                "responses": {"200": {"description": "File stream"}, "404": {"description": "Expired or unknown token"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateMaterialRequest": {
            "type": "object",
            "required": ["series", "type", "department_id", "rec_approver_id", "final_approver_id", "required_date"],
            "properties": {
                "series": {"type": "string"},
                "type": {"type": "string", "enum": ["ITEM", "SERVICE"]},
                "department_id": {"type": "string"},
                "rec_approver_id": {"type": "string"},
                "final_approver_id": {"type": "string"},
                "required_date": {"type": "string"},
                "freight": {"type": "number"},
                "discount": {"type": "number"},
                "remarks": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/RequestLine"}}
            }
        },
        "RequestLine": {
            "type": "object",
            "required": ["description", "unit"],
            "properties": {
                "item_code": {"type": "string"},
                "description": {"type": "string"},
                "unit": {"type": "string"},
                "quantity": {"type": "number"},
                "unit_price": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
