//go:build highs

package main

import _ "cutting_stock_cg/src/oracle/highs"
