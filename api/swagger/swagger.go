package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Institute API",
        "description": "School management backend over a keyed record store",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Login, refresh and session introspection"},
        {"name": "Students", "description": "Student roster and certificates"},
        {"name": "Fees", "description": "Per-student installment ledgers"},
        {"name": "Attendance", "description": "Clock events and daily registers"},
        {"name": "Teachers", "description": "Teacher roster"},
        {"name": "Classes", "description": "Class roster"},
        {"name": "Subjects", "description": "Subject catalogue"},
        {"name": "Library", "description": "Book inventory and issuing"},
        {"name": "Hostel", "description": "Room inventory and occupancy"},
        {"name": "Transport", "description": "Vehicle fleet"},
        {"name": "Notices", "description": "Public notice board and job postings"},
        {"name": "Contact", "description": "Public contact form and replies"},
        {"name": "Assistant", "description": "Front-desk assistant"},
        {"name": "Videos", "description": "Promotional video generation"},
        {"name": "Dashboard", "description": "Derived institute summary"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Enroll student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Remove student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students/{id}/certificate": {
            "get": {
                "tags": ["Students"],
                "summary": "Download certificate PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "OK"},
                    "412": {"description": "Status not eligible", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/fees": {
            "get": {
                "tags": ["Fees"],
                "summary": "Fee summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/fees/payments": {
            "post": {
                "tags": ["Fees"],
                "summary": "Record payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Amount exceeds outstanding balance", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/events": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record clock event",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/register": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Daily register",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contact": {
            "post": {
                "tags": ["Contact"],
                "summary": "Submit contact message",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Captcha verification failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assistant/ask": {
            "post": {
                "tags": ["Assistant"],
                "summary": "Ask the front-desk assistant",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/videos": {
            "post": {
                "tags": ["Videos"],
                "summary": "Start video generation",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Institute summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
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
        "CreateStudentRequest": {
            "type": "object",
            "required": ["full_name", "grade", "email", "password"],
            "properties": {
                "full_name": {"type": "string"},
                "grade": {"type": "string"},
                "father_name": {"type": "string"},
                "mother_name": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "password": {"type": "string"},
                "photo": {"type": "string"}
            }
        },
        "UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "grade": {"type": "string"},
                "father_name": {"type": "string"},
                "mother_name": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "photo": {"type": "string"}
            }
        },
        "RecordPaymentRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"}
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
