// Package exporter writes reduced datasets to the formats downstream tools
// expect: CSV for plotting and scripting, Excel workbooks for colleagues
// who live in spreadsheets. Column headers carry the unit label so the
// physical meaning survives the trip out of the unit system.
package exporter
