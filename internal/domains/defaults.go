// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package domains

// Domain names shipped with Stockdesk.
const (
	AppConfig      = "app_config"
	AllStocks      = "all_stocks"
	MySelection    = "my_selection"
	StockReview    = "stock_review"
	SelfReflect    = "self_reflect"
	MarketAnalysis = "market_analysis"
	StockLines     = "stock_lines"
	TrendLines     = "trend_lines"
	Holdings       = "holdings"
	Orders         = "orders"
)

func col(name string, t ColumnType) Column { return Column{Name: name, Type: t} }

func nullable(name string, t ColumnType) Column {
	return Column{Name: name, Type: t, Nullable: true}
}

// Defaults returns the built-in domain definitions without initializers.
// Bind them to storage with database.Stores.Bind before registering.
func Defaults() []Domain {
	return []Domain{
		{
			Name:    AppConfig,
			Table:   "app_config",
			Columns: []Column{col("key", Text), col("value", Text)},
			Key:     []string{"key"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS app_config (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`},
		},
		{
			Name:    AllStocks,
			Table:   "all_stocks",
			Columns: []Column{col("symbol", Text), col("name", Text)},
			Key:     []string{"symbol"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS all_stocks (
				symbol TEXT PRIMARY KEY,
				name TEXT NOT NULL
			)`},
		},
		{
			Name:  MySelection,
			Table: "my_selection",
			Columns: []Column{
				col("code", Text), col("name", Text),
				nullable("color", Text), nullable("remark", Text),
				col("sort", Integer),
			},
			Key: []string{"code"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS my_selection (
				code TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				color TEXT,
				remark TEXT,
				sort INTEGER NOT NULL DEFAULT 0
			)`},
		},
		{
			Name:  StockReview,
			Table: "stock_review",
			Columns: []Column{
				col("id", Integer), col("title", Text), col("code", Text),
				col("date", Text), col("type", Text), nullable("description", Text),
			},
			Key: []string{"id"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS stock_review (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				code TEXT NOT NULL,
				date TEXT NOT NULL,
				type TEXT NOT NULL,
				description TEXT
			)`},
		},
		{
			Name:  SelfReflect,
			Table: "self_reflect",
			Columns: []Column{
				col("id", Integer), col("title", Text), col("code", Text),
				col("date", Text), nullable("description", Text),
			},
			Key: []string{"id"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS self_reflect (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				code TEXT NOT NULL,
				date TEXT NOT NULL,
				description TEXT
			)`},
		},
		{
			Name:    MarketAnalysis,
			Table:   "market_analysis",
			Columns: []Column{col("date", Text), col("analysis", Text), col("status", Text)},
			Key:     []string{"date"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS market_analysis (
				date TEXT PRIMARY KEY,
				analysis TEXT NOT NULL,
				status TEXT NOT NULL
			)`},
		},
		{
			Name:  StockLines,
			Table: "stock_lines",
			Columns: []Column{
				col("id", Integer), col("code", Text), col("period", Text),
				col("x1", Real), col("y1", Real), col("x2", Real), col("y2", Real),
				col("width", Real), col("height", Real),
			},
			Key: []string{"id"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS stock_lines (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT NOT NULL,
				period TEXT NOT NULL,
				x1 REAL NOT NULL,
				y1 REAL NOT NULL,
				x2 REAL NOT NULL,
				y2 REAL NOT NULL,
				width REAL NOT NULL,
				height REAL NOT NULL
			)`},
		},
		{
			Name:  TrendLines,
			Table: "trend_lines",
			Columns: []Column{
				col("id", Integer), col("code", Text), col("period", Text),
				col("start_time", Integer), col("end_time", Integer),
				col("start_price", Real), col("end_price", Real),
			},
			Key: []string{"id"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS trend_lines (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT NOT NULL,
				period TEXT NOT NULL,
				start_time INTEGER NOT NULL,
				end_time INTEGER NOT NULL,
				start_price REAL NOT NULL,
				end_price REAL NOT NULL
			)`},
		},
		{
			// id is a destination surrogate; a holding is identified by its stock code.
			Name:  Holdings,
			Table: "holdings",
			Columns: []Column{
				col("code", Text), col("name", Text), col("cost", Real),
				col("quantity", Integer), col("hold_time", Text), col("status", Integer),
				nullable("sell_time", Text), nullable("sell_price", Real), nullable("profit", Real),
			},
			Key: []string{"code"},
			Schema: []string{`CREATE TABLE IF NOT EXISTS holdings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				cost REAL NOT NULL,
				quantity INTEGER NOT NULL,
				hold_time TEXT NOT NULL DEFAULT (datetime('now', 'localtime')),
				status INTEGER NOT NULL DEFAULT 1,
				sell_time TEXT,
				sell_price REAL,
				profit REAL
			)`},
		},
		{
			Name:  Orders,
			Table: "orders",
			Columns: []Column{
				col("id", Integer), col("code", Text), col("name", Text), col("time", Text),
				col("quantity", Integer), col("cost", Real), col("action", Text),
			},
			Key: []string{"id"},
			Schema: []string{
				`CREATE TABLE IF NOT EXISTS orders (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					code TEXT NOT NULL,
					name TEXT NOT NULL,
					time TEXT NOT NULL,
					quantity INTEGER NOT NULL,
					cost REAL NOT NULL,
					action TEXT NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_orders_code ON orders(code)`,
			},
		},
	}
}
