package handlers

import (
	"encoding/json"
	"net/http"
)

func pathParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}
}

func dateParam(name string) map[string]interface{} {
	p := pathParam(name, "Date in YYYY-MM-DD format, inside the dataset date range")
	p["schema"] = map[string]string{"type": "string", "format": "date"}
	return p
}

func jsonResponse(description string, schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": schema,
			},
		},
	}
}

func arrayOf(ref string) map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": map[string]string{"$ref": "#/components/schemas/" + ref},
	}
}

func ref(name string) map[string]string {
	return map[string]string{"$ref": "#/components/schemas/" + name}
}

func listOperation(summary, schema string) map[string]interface{} {
	return map[string]interface{}{
		"get": map[string]interface{}{
			"summary": summary,
			"responses": map[string]interface{}{
				"200": jsonResponse("Every row, in store order", arrayOf(schema)),
				"500": jsonResponse("Query failed", ref("Error")),
			},
		},
	}
}

func validatedOperation(summary string, params []map[string]interface{}, ok map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"get": map[string]interface{}{
			"summary":    summary,
			"parameters": params,
			"responses": map[string]interface{}{
				"200": ok,
				"400": jsonResponse("Malformed date, unknown station or date outside the dataset range", ref("Error")),
				"500": jsonResponse("Query failed", ref("Error")),
			},
		},
	}
}

func nullableNumber() map[string]interface{} {
	return map[string]interface{}{"type": "number", "nullable": true}
}

func statsProperties(withStation bool) map[string]interface{} {
	props := map[string]interface{}{
		"Start Date":                   map[string]string{"type": "string"},
		"End Date":                     map[string]string{"type": "string"},
		"Minimum recorded Temperature": nullableNumber(),
		"Average recorded Temperature": nullableNumber(),
		"Maximum recorded Temperature": nullableNumber(),
	}
	if withStation {
		props["Station"] = map[string]string{"type": "string"}
	}
	return map[string]interface{}{"type": "object", "properties": props}
}

// OpenAPISpec returns the OpenAPI 3.0 document for the Climate API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Climate API",
			"description": "Read-only JSON API over the Hawaii climate measurement and station dataset",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/v1.0/measurements":          listOperation("List all measurements", "Measurement"),
			"/api/v1.0/stations":              listOperation("List all stations", "Station"),
			"/api/v1.0/measurements_Stations": listOperation("List measurements joined with their station", "MeasurementWithStation"),
			"/api/v1.0/measurements_StationsInRange/{start}/{end}": validatedOperation(
				"List joined measurements between two dates, inclusive",
				[]map[string]interface{}{dateParam("start"), dateParam("end")},
				jsonResponse("Joined rows dated within [start, end]", arrayOf("MeasurementWithStation")),
			),
			"/api/v1.0/temp_stats/{start}/{end}": validatedOperation(
				"Temperature min, average and max over a date range",
				[]map[string]interface{}{dateParam("start"), dateParam("end")},
				jsonResponse("Temperature statistics", statsProperties(false)),
			),
			"/api/v1.0/temp_stats_station/{station}/{start}/{end}": validatedOperation(
				"Temperature min, average and max for one station over a date range",
				[]map[string]interface{}{pathParam("station", "Station identifier, e.g. USC00519397"), dateParam("start"), dateParam("end")},
				jsonResponse("Temperature statistics for the station", statsProperties(true)),
			),
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": jsonResponse("Dataset store reachable", ref("Health")),
						"503": jsonResponse("Dataset store unreachable", ref("Health")),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Measurement": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":      map[string]string{"type": "integer"},
						"station": map[string]string{"type": "string"},
						"date":    map[string]string{"type": "string"},
						"prcp":    nullableNumber(),
						"tobs":    map[string]string{"type": "number"},
					},
				},
				"Station": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":        map[string]string{"type": "integer"},
						"station":   map[string]string{"type": "string"},
						"name":      map[string]string{"type": "string"},
						"latitude":  map[string]string{"type": "number"},
						"longitude": map[string]string{"type": "number"},
						"elevation": map[string]string{"type": "number"},
					},
				},
				"MeasurementWithStation": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"date":      map[string]string{"type": "string"},
						"id":        map[string]string{"type": "integer"},
						"station":   map[string]string{"type": "string"},
						"name":      map[string]string{"type": "string"},
						"latitude":  map[string]string{"type": "number"},
						"longitude": map[string]string{"type": "number"},
						"prcp":      nullableNumber(),
						"tobs":      map[string]string{"type": "number"},
					},
				},
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
					},
				},
				"Health": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"status":    map[string]string{"type": "string"},
						"timestamp": map[string]string{"type": "string", "format": "date-time"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
