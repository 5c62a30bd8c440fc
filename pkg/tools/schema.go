package tools

import "encoding/json"

// Input schemas, JSON Schema draft 2020-12 subset.

var searchStatisticsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "searchWord": {"type": "string", "description": "Keyword matched against table titles (e.g. 人口)"},
    "limit": {"type": "integer", "minimum": 1, "maximum": 1000, "default": 10, "description": "Maximum number of tables"}
  },
  "additionalProperties": false
}`)

var getStatisticsDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "statsDataId": {"type": "string", "minLength": 1, "description": "e-Stat statistics table id (e.g. 0003410379)"},
    "limit": {"type": "integer", "minimum": 1, "maximum": 10000, "default": 100, "description": "Maximum number of observations"},
    "startPosition": {"type": "integer", "minimum": 0, "description": "1-based position of the first observation"}
  },
  "required": ["statsDataId"],
  "additionalProperties": false
}`)

const indicatorProperties = `
    "countryCode": {"type": "string", "description": "ISO country code, or several joined by ';' (e.g. JP;US)"},
    "indicatorCode": {"type": "string", "minLength": 1, "description": "Indicator id (e.g. NY.GDP.MKTP.CD)"},
    "startYear": {"type": "integer", "minimum": 1960, "maximum": 2100},
    "endYear": {"type": "integer", "minimum": 1960, "maximum": 2100}`

var getIndicatorDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {` + indicatorProperties + `
  },
  "required": ["countryCode", "indicatorCode"],
  "additionalProperties": false
}`)

var searchIndicatorsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "search": {"type": "string", "description": "Text matched against indicator ids and names"}
  },
  "additionalProperties": false
}`)

var getSDMXDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "datasetId": {"type": "string", "minLength": 1, "description": "OECD dataflow id (e.g. OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA)"},
    "filter": {"type": "string", "default": "all", "description": "SDMX key filter (e.g. Q.JPN.B1GQ)"},
    "startPeriod": {"type": "string", "description": "First period (e.g. 2020-Q1)"},
    "endPeriod": {"type": "string", "description": "Last period (e.g. 2024-Q4)"}
  },
  "required": ["datasetId"],
  "additionalProperties": false
}`)

var getJSONStatDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "datasetCode": {"type": "string", "minLength": 1, "description": "Eurostat dataset code (e.g. nama_10_gdp)"},
    "filters": {
      "type": "object",
      "additionalProperties": {"oneOf": [{"type": "string"}, {"type": "array", "items": {"type": "string"}}]},
      "description": "Dimension filters (e.g. {\"geo\": \"EU27_2020\", \"time\": \"2023\"})"
    },
    "lang": {"type": "string", "enum": ["EN", "DE", "FR", "IT", "ES", "PL", "PT"], "default": "EN"}
  },
  "required": ["datasetCode"],
  "additionalProperties": false
}`)

const inputProperties = `
    "dataSource": {"type": "string", "enum": ["estat", "worldbank", "oecd", "eurostat"], "description": "Source id; e-stat, world-bank, sdmx and jsonstat are accepted aliases"},
    "dataParams": {"type": "object", "description": "Arguments of the source's data tool (get-statistics-data, get-indicator-data, get-sdmx-data or get-jsonstat-data)"},
    "transform": {
      "type": "object",
      "properties": {
        "filter": {"type": "object", "description": "Column equality filter"},
        "sort": {"type": "array", "items": {"type": "object", "properties": {"column": {"type": "string"}, "order": {"type": "string", "enum": ["asc", "desc"]}}, "required": ["column"]}},
        "asTimeSeries": {"type": "object", "properties": {"dateColumn": {"type": "string"}, "valueColumn": {"type": "string"}, "groupColumn": {"type": "string"}}, "required": ["dateColumn", "valueColumn"]},
        "asPivot": {"type": "object", "properties": {"indexColumn": {"type": "string"}, "columnsColumn": {"type": "string"}, "valuesColumn": {"type": "string"}}, "required": ["indexColumn", "columnsColumn", "valuesColumn"]}
      }
    }`

var exportDataSchema = json.RawMessage(`{
  "type": "object",
  "properties": {` + inputProperties + `,
    "format": {"type": "string", "enum": ["csv", "json", "json-structured", "xlsx"], "default": "json"}
  },
  "required": ["dataSource", "dataParams"],
  "additionalProperties": false
}`)

var calculateStatisticsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {` + inputProperties + `,
    "statistics": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "enum": ["mean", "median", "mode", "std", "variance", "min", "max", "range", "q1", "q3", "iqr"]}
    },
    "groupBy": {"type": "string", "description": "Column whose values partition the rows"},
    "valueColumn": {"type": "string", "default": "value"}
  },
  "required": ["dataSource", "dataParams", "statistics"],
  "additionalProperties": false
}`)

var generateChartSchema = json.RawMessage(`{
  "type": "object",
  "properties": {` + inputProperties + `,
    "chartType": {"type": "string", "enum": ["line", "bar", "pie"]},
    "title": {"type": "string"},
    "xLabel": {"type": "string"},
    "yLabel": {"type": "string"},
    "width": {"type": "integer", "minimum": 200, "maximum": 4000, "default": 800},
    "height": {"type": "integer", "minimum": 200, "maximum": 4000, "default": 400},
    "showLegend": {"type": "boolean", "default": true},
    "attribution": {"type": "boolean", "default": true, "description": "Add the data source credit below the chart"},
    "labelColumn": {"type": "string", "description": "Column for x axis labels"},
    "seriesColumn": {"type": "string", "description": "Column that splits rows into series"},
    "valueColumn": {"type": "string", "default": "value"}
  },
  "required": ["chartType", "dataSource", "dataParams"],
  "additionalProperties": false
}`)
