package chain

var Connect = connect
