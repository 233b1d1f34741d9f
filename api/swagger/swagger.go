package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Core API",
        "description": "Multi-tenant school management core: grade evaluation, tuition billing, payroll and library loans",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Evaluation", "description": "Assessment scores and grade evaluation"},
        {"name": "Billing", "description": "Tuition invoice lifecycle"},
        {"name": "Payroll", "description": "Monthly payroll batches and settlement"},
        {"name": "Library", "description": "Book loans"},
        {"name": "Finance", "description": "Accounts and the transaction ledger"},
        {"name": "Statements", "description": "Asynchronous financial statements"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Tokens issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "Tokens rotated"},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/scores": {
            "put": {
                "tags": ["Evaluation"],
                "summary": "Record an assessment score",
                "responses": {
                    "200": {"description": "Re-derived evaluation"},
                    "409": {"description": "Enrollment not active"}
                }
            }
        },
        "/enrollments/{id}/evaluation": {
            "get": {
                "tags": ["Evaluation"],
                "summary": "Evaluate an enrollment for a subject",
                "responses": {
                    "200": {"description": "Evaluation result"},
                    "404": {"description": "Enrollment or subject not found"}
                }
            }
        },
        "/invoices": {
            "get": {
                "tags": ["Billing"],
                "summary": "List invoices with projected late fees",
                "responses": {
                    "200": {"description": "Invoice list"}
                }
            }
        },
        "/invoices/generate": {
            "post": {
                "tags": ["Billing"],
                "summary": "Generate monthly invoices (idempotent)",
                "responses": {
                    "200": {"description": "Batch result"}
                }
            }
        },
        "/invoices/{id}/pay": {
            "post": {
                "tags": ["Billing"],
                "summary": "Apply a payment",
                "responses": {
                    "200": {"description": "Paid invoice"},
                    "409": {"description": "Invoice already paid"}
                }
            }
        },
        "/invoices/{id}/receipt": {
            "get": {
                "tags": ["Billing"],
                "summary": "Download a payment receipt",
                "responses": {
                    "200": {"description": "PDF receipt"},
                    "409": {"description": "Invoice not paid"}
                }
            }
        },
        "/payroll": {
            "get": {
                "tags": ["Payroll"],
                "summary": "List payroll entries",
                "responses": {
                    "200": {"description": "Entry list"}
                }
            }
        },
        "/payroll/generate": {
            "post": {
                "tags": ["Payroll"],
                "summary": "Generate monthly payroll (idempotent)",
                "responses": {
                    "200": {"description": "Batch result"}
                }
            }
        },
        "/payroll/{id}/pay": {
            "post": {
                "tags": ["Payroll"],
                "summary": "Settle a payroll entry",
                "responses": {
                    "200": {"description": "Paid entry"},
                    "409": {"description": "Entry already paid"}
                }
            }
        },
        "/loans": {
            "post": {
                "tags": ["Library"],
                "summary": "Borrow a book copy",
                "responses": {
                    "201": {"description": "Loan opened"},
                    "409": {"description": "No copies available"}
                }
            }
        },
        "/loans/{id}/return": {
            "post": {
                "tags": ["Library"],
                "summary": "Return a borrowed copy",
                "responses": {
                    "200": {"description": "Loan closed"},
                    "409": {"description": "Loan already returned"}
                }
            }
        },
        "/accounts": {
            "get": {
                "tags": ["Finance"],
                "summary": "List accounts",
                "responses": {
                    "200": {"description": "Account list"}
                }
            }
        },
        "/transactions": {
            "get": {
                "tags": ["Finance"],
                "summary": "List ledger transactions",
                "responses": {
                    "200": {"description": "Transaction list"}
                }
            }
        },
        "/transactions/export": {
            "get": {
                "tags": ["Finance"],
                "summary": "Export one period's ledger as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV export"},
                    "400": {"description": "Invalid period"}
                }
            }
        },
        "/finance/summary": {
            "get": {
                "tags": ["Finance"],
                "summary": "Income and expense totals",
                "responses": {
                    "200": {"description": "Summary"}
                }
            }
        },
        "/statements": {
            "post": {
                "tags": ["Statements"],
                "summary": "Request a monthly statement",
                "responses": {
                    "202": {"description": "Statement queued"}
                }
            }
        },
        "/statements/{id}": {
            "get": {
                "tags": ["Statements"],
                "summary": "Get statement status",
                "responses": {
                    "200": {"description": "Statement"},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
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
