package main

import (
	"stencil/app/router"
)

var Routes = []router.Rule{
	{"/", "index", Index},
}
