// Package docs holds the OpenAPI description served under /swagger.
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
        "/dashboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Dashboard statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DashboardStats"}}
                }
            }
        },
        "/matches": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "List matches",
                "responses": {"200": {"description": "Matches, newest first"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Record a match",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.matchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Match created"},
                    "400": {"description": "Malformed body"},
                    "401": {"description": "Unauthorized"},
                    "422": {"description": "Validation failed"}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Delete several matches",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.idList"}}
                ],
                "responses": {
                    "200": {"description": "Deleted ids"},
                    "404": {"description": "Some matches not found"}
                }
            }
        },
        "/matches/head-to-head": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Head-to-head record of two decks",
                "parameters": [
                    {"type": "integer", "name": "deck", "in": "query", "required": true},
                    {"type": "integer", "name": "opponent", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "Record and matches"}}
            }
        },
        "/matches/{matchID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Get a match",
                "parameters": [{"type": "integer", "name": "matchID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Match"}, "404": {"description": "Match not found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Update a match",
                "parameters": [
                    {"type": "integer", "name": "matchID", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.matchRequest"}}
                ],
                "responses": {"200": {"description": "Match updated"}, "404": {"description": "Match not found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"],
                "summary": "Delete a match",
                "parameters": [{"type": "integer", "name": "matchID", "in": "path", "required": true}],
                "responses": {"204": {"description": "Match deleted"}, "404": {"description": "Match not found"}}
            }
        },
        "/matches/{matchID}/bracket-sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Retry the bracket update of a match",
                "parameters": [
                    {"type": "integer", "name": "matchID", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.BracketRef"}}
                ],
                "responses": {"200": {"description": "Sync result"}}
            }
        },
        "/decks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["decks"],
                "summary": "List decks",
                "responses": {"200": {"description": "Decks"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["decks"],
                "summary": "Create a deck",
                "responses": {"201": {"description": "Deck created"}, "409": {"description": "Name already in use"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["decks"],
                "summary": "Delete several decks",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.idList"}}
                ],
                "responses": {"200": {"description": "Deleted ids"}, "409": {"description": "A deck still has matches"}}
            }
        },
        "/decks/{deckID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["decks"],
                "summary": "Get a deck",
                "parameters": [{"type": "integer", "name": "deckID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Deck"}, "404": {"description": "Deck not found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["decks"],
                "summary": "Update deck details",
                "parameters": [{"type": "integer", "name": "deckID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Deck updated"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["decks"],
                "summary": "Delete a deck",
                "parameters": [{"type": "integer", "name": "deckID", "in": "path", "required": true}],
                "responses": {"204": {"description": "Deck deleted"}, "409": {"description": "Deck still has matches"}}
            }
        },
        "/decks/{deckID}/recalculate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["decks"],
                "summary": "Rebuild deck counters from its matches",
                "parameters": [{"type": "integer", "name": "deckID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Deck with rebuilt counters"}}
            }
        },
        "/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "List tournaments",
                "responses": {"200": {"description": "Tournaments"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Create a tournament",
                "responses": {"201": {"description": "Tournament created"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Delete several tournaments",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.idList"}}
                ],
                "responses": {"200": {"description": "Deleted ids"}}
            }
        },
        "/tournaments/{tournamentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Get a tournament",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Tournament"}, "404": {"description": "Tournament not found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Update tournament details",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Tournament updated"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Delete a tournament",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"204": {"description": "Tournament deleted"}}
            }
        },
        "/tournaments/{tournamentID}/stages/{stageOrder}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stages"],
                "summary": "Get a bracket stage",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "name": "stageOrder", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "Stage view"}, "404": {"description": "Stage not found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["stages"],
                "summary": "Upload a bracket stage",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "name": "stageOrder", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "Stage stored"}, "422": {"description": "Invalid stage or document"}}
            }
        },
        "/tournaments/{tournamentID}/standings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["standings"],
                "summary": "Tournament standings",
                "parameters": [{"type": "integer", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "Standings"}}
            }
        },
        "/tournaments/{tournamentID}/standings/{deckID}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["standings"],
                "summary": "Set a deck's final rank",
                "parameters": [
                    {"type": "integer", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "name": "deckID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "Standing updated"}}
            }
        },
        "/formats": {
            "get": {"tags": ["formats"], "summary": "List formats", "responses": {"200": {"description": "Formats"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["formats"], "summary": "Create a format", "responses": {"201": {"description": "Format created"}}}
        },
        "/archetypes": {
            "get": {"tags": ["archetypes"], "summary": "List archetypes", "responses": {"200": {"description": "Archetypes"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["archetypes"], "summary": "Create an archetype", "responses": {"201": {"description": "Archetype created"}}}
        }
    },
    "definitions": {
        "handlers.idList": {
            "type": "object",
            "properties": {"ids": {"type": "array", "items": {"type": "integer"}}}
        },
        "handlers.matchRequest": {
            "type": "object",
            "properties": {
                "tournament_id": {"type": "integer"},
                "deck_a_id": {"type": "integer"},
                "deck_b_id": {"type": "integer"},
                "winner_id": {"type": "integer"},
                "deck_a_score": {"type": "integer"},
                "deck_b_score": {"type": "integer"},
                "notes": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "bracket": {"$ref": "#/definitions/services.BracketRef"}
            }
        },
        "services.BracketRef": {
            "type": "object",
            "properties": {
                "match_id": {"type": "integer"},
                "opponent1": {"type": "integer"},
                "opponent2": {"type": "integer"},
                "stage": {"type": "integer"}
            }
        },
        "models.DashboardStats": {
            "type": "object",
            "properties": {
                "decks_total": {"type": "integer"},
                "matches_total": {"type": "integer"},
                "tournaments_total": {"type": "integer"},
                "active_tournaments": {"type": "integer"},
                "total_wins": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Duel Vault API",
	Description:      "Deck, match and tournament tracking with bracket synchronisation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
