package jsonnet

import (
	"encoding/json"
	"fmt"
)

// environmentTree walks main and keeps Environment objects accepted by
// `matches`, emitting them through `keep`. Every other leaf is dropped and
// containers left empty are removed. Kept environments are not pruned, so
// their data reaches the caller unchanged.
const environmentTree = `
local matches(object) =
  local name =
    if std.objectHas(object, 'metadata') && std.isObject(object.metadata) && std.objectHas(object.metadata, 'name')
    then object.metadata.name
    else '';
  %s;

local keep(object) = %s;

local nonEmpty(v) = !((std.isObject(v) || std.isArray(v)) && std.length(v) == 0);

local walk(object) =
  if std.isObject(object)
  then
    if std.objectHas(object, 'apiVersion') && std.objectHas(object, 'kind')
    then
      if object.kind == 'Environment' && matches(object)
      then keep(object)
      else {}
    else
      local children = std.mapWithKey(function(key, obj) walk(obj), object);
      { [k]: children[k] for k in std.objectFields(children) if nonEmpty(children[k]) }
  else if std.isArray(object)
  then std.filter(nonEmpty, std.map(walk, object))
  else {};

walk(main)
`

// MetadataEvalScript returns the environments below main without their data.
// Only environments whose name contains filter are kept; an empty filter
// keeps all of them.
func MetadataEvalScript(filter string) string {
	return fmt.Sprintf("local filter = %s;\n", quote(filter)) + fmt.Sprintf(environmentTree,
		"filter == '' || std.length(std.findSubstr(filter, name)) > 0",
		"object { data:: {} }",
	)
}

// SingleEnvEvalScript returns the environments below main whose name is
// exactly name, including their data.
func SingleEnvEvalScript(name string) string {
	return fmt.Sprintf("local target = %s;\n", quote(name)) + fmt.Sprintf(environmentTree,
		"name == target",
		"object",
	)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
