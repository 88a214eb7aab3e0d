/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"github.com/named-data/yancs/sim/cmd"
)

func main() {
	cmd.CmdYancs.Execute()
}
