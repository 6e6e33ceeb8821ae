package main

import (
	"fmt"
	"strconv"
	"strings"

	"myejbclient/domain"
)

// parseBean parses "module/Bean", "app/module/Bean" or "app/module/distinct/Bean".
func parseBean(s string) (domain.BeanIdentifier, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if parts[len(parts)-1] == "" {
		return domain.BeanIdentifier{}, fmt.Errorf("bean %q: bean name is empty", s)
	}
	var id domain.BeanIdentifier
	switch len(parts) {
	case 2:
		id = domain.BeanIdentifier{Module: domain.ModuleIdentifier{ModuleName: parts[0]}, BeanName: parts[1]}
	case 3:
		id = domain.BeanIdentifier{Module: domain.ModuleIdentifier{AppName: parts[0], ModuleName: parts[1]}, BeanName: parts[2]}
	case 4:
		id = domain.BeanIdentifier{Module: domain.ModuleIdentifier{AppName: parts[0], ModuleName: parts[1], DistinctName: parts[2]}, BeanName: parts[3]}
	default:
		return domain.BeanIdentifier{}, fmt.Errorf("bean %q: want [app/]module[/distinct]/Bean", s)
	}
	if id.Module.ModuleName == "" {
		return domain.BeanIdentifier{}, fmt.Errorf("bean %q: module name is empty", s)
	}
	return id, nil
}

// parseParams converts command-line args to call parameters of the given types. Without types every
// argument is a string.
//
// Supported types: string, int, long, short, byte (int64), double, float (float64), boolean.
func parseParams(types, args []string) ([]string, []any, error) {
	if len(types) == 0 {
		types = make([]string, len(args))
		for i := range types {
			types[i] = "string"
		}
	}
	if len(types) != len(args) {
		return nil, nil, fmt.Errorf("%d parameter types for %d arguments", len(types), len(args))
	}
	params := make([]any, len(args))
	for i, arg := range args {
		var err error
		switch types[i] {
		case "string":
			params[i] = arg
		case "int", "long", "short", "byte":
			params[i], err = strconv.ParseInt(arg, 10, 64)
		case "double", "float":
			params[i], err = strconv.ParseFloat(arg, 64)
		case "boolean":
			params[i], err = strconv.ParseBool(arg)
		default:
			return nil, nil, fmt.Errorf("argument %d: unsupported type %q", i, types[i])
		}
		if err != nil {
			return nil, nil, fmt.Errorf("argument %d: %q is not a %s", i, arg, types[i])
		}
	}
	return types, params, nil
}
