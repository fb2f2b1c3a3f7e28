//go:build lpsolve

package main

import _ "cutting_stock_cg/src/oracle/lpsolve"
